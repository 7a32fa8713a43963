package mailwarden

import (
	"fmt"

	"github.com/ppiankov/mailwarden/internal/model"
)

// Action describes what an email tool intends to do alongside the user
// request that triggered it.
type Action struct {
	UserPrompt   string            // the natural-language request from the user
	Tool         string            // proposed action: "send_email", "read_email", "delete_email"
	Params       map[string]string // action parameters: "to", "from", "subject"
	EmailContent string            // source email body, for read-path response checking
	Response     string            // the agent's proposed response to the user
}

// Result is a validation outcome.
type Result struct {
	Approved   bool
	Reason     string
	UserIntent string
}

// BlockedError is returned when validation rejects an action.
type BlockedError struct {
	Action     Action
	Reason     string
	UserIntent string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("mailwarden blocked: %s", e.Reason)
}

// toInternalRequest maps an SDK Action to an internal model.ActionRequest.
func toInternalRequest(a Action) model.ActionRequest {
	return model.ActionRequest{
		UserPrompt:     a.UserPrompt,
		ProposedAction: a.Tool,
		ActionParams:   model.Params(a.Params),
		EmailContent:   a.EmailContent,
	}
}

// toResult maps an internal ValidationResult to an SDK Result.
func toResult(vr model.ValidationResult) Result {
	return Result{
		Approved:   vr.Approved,
		Reason:     vr.Reason,
		UserIntent: string(vr.UserIntent),
	}
}
