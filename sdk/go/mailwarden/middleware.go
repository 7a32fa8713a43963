package mailwarden

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// middlewareBody is the JSON shape Middleware expects on POST bodies.
// It mirrors the daemon's file-based request format.
type middlewareBody struct {
	UserPrompt       string            `json:"user_prompt"`
	ProposedAction   string            `json:"proposed_action"`
	ActionParams     map[string]string `json:"action_params,omitempty"`
	EmailContent     string            `json:"email_content,omitempty"`
	ProposedResponse string            `json:"proposed_response,omitempty"`
}

// Middleware returns an http.Handler that validates intent alignment on
// each request body before passing to the next handler. Rejected requests
// receive a 403 with a JSON body; the original body is restored for next.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		r.Body.Close()
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var mb middlewareBody
		if err := json.Unmarshal(body, &mb); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		result := c.Check(Action{
			UserPrompt:   mb.UserPrompt,
			Tool:         mb.ProposedAction,
			Params:       mb.ActionParams,
			EmailContent: mb.EmailContent,
			Response:     mb.ProposedResponse,
		})

		if !result.Approved {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":     true,
				"reason":      result.Reason,
				"user_intent": result.UserIntent,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
