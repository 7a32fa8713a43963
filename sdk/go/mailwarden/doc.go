// Package mailwarden provides in-process intent-alignment validation for
// Go email agents. It wraps tool functions, checks the agent's proposed
// action against the intent extracted from the user's prompt, reconciles
// recipient parameters, and vets read-path responses for injected content.
//
// Usage:
//
//	mw, err := mailwarden.New(mailwarden.WithAuditLog("audit.jsonl"))
//	wrapped := mw.Wrap(sendEmail)
//	result, err := wrapped(ctx, mailwarden.Action{
//	    UserPrompt: "send an email to bob@example.com",
//	    Tool:       "send_email",
//	    Params:     map[string]string{"to": "bob@example.com"},
//	})
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/mailwarden/sdk/go/mailwarden.
package mailwarden
