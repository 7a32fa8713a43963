package intake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Config holds intake processing configuration.
type Config struct {
	InboxDir      string
	AllowlistFile string
	RateLimitDir  string
	RateLimit     int
	RateWindow    time.Duration
}

// requestJSON mirrors the daemon.Request schema without importing it,
// avoiding a package cycle.
type requestJSON struct {
	ID               string            `json:"id"`
	UserPrompt       string            `json:"user_prompt"`
	ProposedAction   string            `json:"proposed_action"`
	ActionParams     map[string]string `json:"action_params,omitempty"`
	EmailContent     string            `json:"email_content,omitempty"`
	ProposedResponse string            `json:"proposed_response,omitempty"`
	Source           string            `json:"source"`
	CreatedAt        time.Time         `json:"created_at"`
}

// payload is the JSON document expected in the email body.
type payload struct {
	UserPrompt       string            `json:"user_prompt"`
	ProposedAction   string            `json:"proposed_action"`
	ActionParams     map[string]string `json:"action_params,omitempty"`
	EmailContent     string            `json:"email_content,omitempty"`
	ProposedResponse string            `json:"proposed_response,omitempty"`
}

// ProcessEmail parses a raw email, validates the sender, checks the rate
// limit, and writes a validation request to the daemon inbox. The email
// body must be a JSON payload with at least user_prompt and
// proposed_action set.
func ProcessEmail(cfg Config, raw []byte) error {
	email, err := ParseEmail(raw)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	al, err := LoadAllowlist(cfg.AllowlistFile)
	if err != nil {
		return fmt.Errorf("allowlist: %w", err)
	}
	if !al.IsAllowed(email.From) {
		return fmt.Errorf("sender %s not in allowlist", email.From)
	}

	rl := NewRateLimiter(cfg.RateLimitDir, cfg.RateLimit, cfg.RateWindow)
	if err := rl.Check(email.From); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var p payload
	if err := json.Unmarshal([]byte(email.Body), &p); err != nil {
		return fmt.Errorf("body is not a valid request payload: %w", err)
	}
	if p.UserPrompt == "" || p.ProposedAction == "" {
		return fmt.Errorf("payload requires user_prompt and proposed_action")
	}

	req := requestJSON{
		ID:               "mail-" + uuid.NewString(),
		UserPrompt:       p.UserPrompt,
		ProposedAction:   p.ProposedAction,
		ActionParams:     p.ActionParams,
		EmailContent:     p.EmailContent,
		ProposedResponse: p.ProposedResponse,
		Source:           "maildrop:" + email.From,
		CreatedAt:        time.Now().UTC(),
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Atomic write: the daemon watcher must never see a partial file.
	filename := req.ID + ".json"
	tmpPath := filepath.Join(cfg.InboxDir, filename+".tmp")
	finalPath := filepath.Join(cfg.InboxDir, filename)

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmpPath, finalPath)
}
