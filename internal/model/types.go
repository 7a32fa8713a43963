package model

// IntentKind is the coarse category a mail request is classified into.
type IntentKind string

const (
	IntentRead    IntentKind = "read"
	IntentWrite   IntentKind = "write"
	IntentDelete  IntentKind = "delete"
	IntentUnknown IntentKind = "unknown"
)

// Valid reports whether k is one of the closed set of kinds.
func (k IntentKind) Valid() bool {
	switch k {
	case IntentRead, IntentWrite, IntentDelete, IntentUnknown:
		return true
	}
	return false
}

// Parameter keys the extractor and validator understand. New keys must be
// added here explicitly — never inferred from input.
const (
	KeyFrom    = "from"
	KeyTo      = "to"
	KeySubject = "subject"
)

// Params maps a parameter name to its string value. An absent key means
// "unconstrained", which is different from an empty string.
type Params map[string]string

// Clone returns a copy of the params so callers can't mutate shared state.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ActionRequest is one unit of work for the proxy: a user prompt, the
// action the agent proposes in response, and optional email content for
// read-path response checking. Constructed fresh per validation call;
// it has no identity across calls.
type ActionRequest struct {
	UserPrompt     string `json:"user_prompt"`
	ProposedAction string `json:"proposed_action"`
	ActionParams   Params `json:"action_params,omitempty"`
	EmailContent   string `json:"email_content,omitempty"`
}

// ValidationResult is the proxy's decision for one ActionRequest.
// Produced exactly once per request and never mutated after construction.
type ValidationResult struct {
	Approved   bool       `json:"action_approved"`
	Reason     string     `json:"validation_reason"`
	UserIntent IntentKind `json:"user_intent"`
}
