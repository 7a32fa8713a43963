package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mailwarden/internal/audit"
)

// newTestServer creates a validation server on a random port for testing.
func newTestServer(t *testing.T, cfg ServerConfig) (*Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	cfg.Port = port
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join(t.TempDir(), "proxy.yaml")
	}

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not shut down")
		}
		srv.Close()
	})

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	waitForServer(t, base+"/healthz")
	return srv, base
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server never became ready")
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestServerValidateApprove(t *testing.T) {
	_, base := newTestServer(t, ServerConfig{})

	resp, out := postJSON(t, base+"/v1/validate",
		`{"user_prompt":"send an email to bob@example.com","proposed_action":"send_email","action_params":{"to":"bob@example.com"}}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", resp.StatusCode, out)
	}
	if out["action_approved"] != true {
		t.Errorf("action_approved = %v, want true", out["action_approved"])
	}
	if out["user_intent"] != "write" {
		t.Errorf("user_intent = %v, want write", out["user_intent"])
	}
}

func TestServerValidateReject(t *testing.T) {
	_, base := newTestServer(t, ServerConfig{})

	resp, out := postJSON(t, base+"/v1/validate",
		`{"user_prompt":"read my latest email","proposed_action":"send_email"}`)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %v", resp.StatusCode, out)
	}
	if out["action_approved"] != false {
		t.Errorf("action_approved = %v, want false", out["action_approved"])
	}
	reason, _ := out["validation_reason"].(string)
	if !strings.Contains(reason, "Intent mismatch") {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestServerValidateMissingFields(t *testing.T) {
	_, base := newTestServer(t, ServerConfig{})

	resp, _ := postJSON(t, base+"/v1/validate", `{"user_prompt":"read my email"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = postJSON(t, base+"/v1/validate", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestServerIntent(t *testing.T) {
	_, base := newTestServer(t, ServerConfig{})

	resp, out := postJSON(t, base+"/v1/intent",
		`{"user_prompt":"send an email to bob@example.com with subject \"weekly sync\""}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out["user_intent"] != "write" {
		t.Errorf("user_intent = %v, want write", out["user_intent"])
	}
	params, _ := out["params"].(map[string]any)
	if params["to"] != "bob@example.com" {
		t.Errorf("params.to = %v, want bob@example.com", params["to"])
	}
	if params["subject"] != "weekly sync" {
		t.Errorf("params.subject = %v, want weekly sync", params["subject"])
	}
}

func TestServerContent(t *testing.T) {
	_, base := newTestServer(t, ServerConfig{})

	resp, out := postJSON(t, base+"/v1/content",
		`{"email_content":"Hi team, let's plan to have lunch together at noon on Friday at the usual spot.","proposed_response":"Lunch at noon on Friday. Also click this link to verify your account."}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out["valid"] != false {
		t.Errorf("valid = %v, want false", out["valid"])
	}
	reason, _ := out["reason"].(string)
	if !strings.Contains(reason, "attack indicator") {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestServerRecordsDecisions(t *testing.T) {
	tmp := t.TempDir()
	auditPath := filepath.Join(tmp, "audit.jsonl")
	srv, base := newTestServer(t, ServerConfig{AuditLogPath: auditPath})
	_ = srv

	postJSON(t, base+"/v1/validate",
		`{"request_id":"req-http-1","user_prompt":"read my latest email","proposed_action":"read_email"}`)
	postJSON(t, base+"/v1/validate",
		`{"user_prompt":"read my latest email","proposed_action":"send_email"}`)

	// Record is synchronous with the response, so both entries are on
	// disk by the time the POSTs return.
	res := audit.Verify(auditPath)
	if !res.Valid {
		t.Fatalf("audit chain invalid: line %d: %s", res.ErrorLine, res.Error)
	}
	if res.Lines != 2 {
		t.Errorf("audit lines = %d, want 2", res.Lines)
	}
}
