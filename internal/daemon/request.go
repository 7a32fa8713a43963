// Package daemon implements the mailwarden inbox/outbox validation service.
// Requests arrive as JSON files in the inbox directory, are run through the
// intent-alignment validator, and results are written to the outbox.
package daemon

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/mailwarden/internal/model"
)

// validID matches alphanumeric characters, dashes, and underscores only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Request is a validation job dropped into the inbox.
type Request struct {
	ID               string       `json:"id"`
	UserPrompt       string       `json:"user_prompt"`
	ProposedAction   string       `json:"proposed_action"`
	ActionParams     model.Params `json:"action_params,omitempty"`
	EmailContent     string       `json:"email_content,omitempty"`
	ProposedResponse string       `json:"proposed_response,omitempty"`
	Source           string       `json:"source,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Result is written to the outbox after processing a request.
type Result struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Approved    bool      `json:"action_approved"`
	Reason      string    `json:"validation_reason,omitempty"`
	UserIntent  string    `json:"user_intent,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Result status values.
const (
	ResultDone   = "done"
	ResultFailed = "failed"
)

// ValidateRequest checks that a request has all required fields and a safe ID.
// A malformed prompt or action is NOT an error here — the validator handles
// any string — but the file-level envelope must be complete.
func ValidateRequest(r *Request) error {
	if r.ID == "" {
		return fmt.Errorf("request ID is required")
	}
	if strings.Contains(r.ID, "..") {
		return fmt.Errorf("request ID must not contain '..'")
	}
	if !validID.MatchString(r.ID) {
		return fmt.Errorf("request ID contains invalid characters")
	}
	if r.UserPrompt == "" {
		return fmt.Errorf("user_prompt is required")
	}
	if r.ProposedAction == "" {
		return fmt.Errorf("proposed_action is required")
	}
	return nil
}
