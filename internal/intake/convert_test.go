package intake

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func intakeConfig(t *testing.T) Config {
	t.Helper()
	base := t.TempDir()
	allowlist := filepath.Join(base, "allowlist.txt")
	if err := os.WriteFile(allowlist, []byte("ops@example.com\n"), 0600); err != nil {
		t.Fatal(err)
	}
	inbox := filepath.Join(base, "inbox")
	if err := os.MkdirAll(inbox, 0750); err != nil {
		t.Fatal(err)
	}
	return Config{
		InboxDir:      inbox,
		AllowlistFile: allowlist,
		RateLimitDir:  filepath.Join(base, "ratelimit"),
		RateLimit:     10,
		RateWindow:    time.Hour,
	}
}

func rawRequest(from, body string) []byte {
	return []byte("From: " + from + "\r\nSubject: validate\r\n\r\n" + body + "\r\n")
}

func TestProcessEmailWritesRequest(t *testing.T) {
	cfg := intakeConfig(t)
	body := `{"user_prompt":"Read the latest email from john@example.com","proposed_action":"read_email","action_params":{"from":"john@example.com"}}`

	if err := ProcessEmail(cfg, rawRequest("ops@example.com", body)); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(cfg.InboxDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 inbox file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "mail-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected file name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(cfg.InboxDir, name))
	if err != nil {
		t.Fatal(err)
	}
	var req requestJSON
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatal(err)
	}
	if req.ProposedAction != "read_email" {
		t.Errorf("proposed_action = %q", req.ProposedAction)
	}
	if req.ActionParams["from"] != "john@example.com" {
		t.Errorf("action_params = %v", req.ActionParams)
	}
	if req.Source != "maildrop:ops@example.com" {
		t.Errorf("source = %q", req.Source)
	}
}

func TestProcessEmailRejectsUnknownSender(t *testing.T) {
	cfg := intakeConfig(t)
	body := `{"user_prompt":"read my email","proposed_action":"read_email"}`

	err := ProcessEmail(cfg, rawRequest("stranger@evil.com", body))
	if err == nil || !strings.Contains(err.Error(), "allowlist") {
		t.Fatalf("expected allowlist rejection, got %v", err)
	}
}

func TestProcessEmailRejectsNonJSONBody(t *testing.T) {
	cfg := intakeConfig(t)

	if err := ProcessEmail(cfg, rawRequest("ops@example.com", "please validate something")); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestProcessEmailRejectsIncompletePayload(t *testing.T) {
	cfg := intakeConfig(t)

	err := ProcessEmail(cfg, rawRequest("ops@example.com", `{"user_prompt":"read my email"}`))
	if err == nil || !strings.Contains(err.Error(), "proposed_action") {
		t.Fatalf("expected payload validation error, got %v", err)
	}
}
