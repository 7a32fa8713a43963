package mailwarden

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewarePassesApproved(t *testing.T) {
	c := newTestClient(t)

	var seenBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusCreated)
	})

	body := `{"user_prompt":"send an email to bob@example.com","proposed_action":"send_email","action_params":{"to":"bob@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/tools/send_email", strings.NewReader(body))
	rec := httptest.NewRecorder()

	c.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	if seenBody != body {
		t.Errorf("next handler saw modified body: %q", seenBody)
	}
}

func TestMiddlewareBlocksRejected(t *testing.T) {
	c := newTestClient(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run on rejection")
	})

	body := `{"user_prompt":"read my latest email","proposed_action":"send_email"}`
	req := httptest.NewRequest(http.MethodPost, "/tools/send_email", strings.NewReader(body))
	rec := httptest.NewRecorder()

	c.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["blocked"] != true {
		t.Errorf("blocked = %v, want true", resp["blocked"])
	}
	if !strings.Contains(resp["reason"].(string), "Intent mismatch") {
		t.Errorf("unexpected reason: %v", resp["reason"])
	}
}

func TestMiddlewareRejectsBadJSON(t *testing.T) {
	c := newTestClient(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run on bad input")
	})

	req := httptest.NewRequest(http.MethodPost, "/tools/send_email", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	c.Middleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
