package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/model"
)

// ServerConfig holds validation server configuration.
type ServerConfig struct {
	Port         int
	ConfigPath   string
	AuditLogPath string
	HistoryPath  string
}

// Server exposes the validator over HTTP for agents that cannot embed the
// SDK or speak MCP. It never executes mail actions; it only renders
// verdicts.
type Server struct {
	cfg        ServerConfig
	validator  *Validator
	auditLog   *audit.Log
	store      *history.Store
	configHash string
	srv        *http.Server
}

// NewServer creates a validation server with the given configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	proxyCfg, configHash, err := LoadConfigWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	validator, err := NewFromConfig(proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		validator:  validator,
		configHash: configHash,
	}

	if cfg.AuditLogPath != "" {
		s.auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}
	if cfg.HistoryPath != "" {
		s.store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			if s.auditLog != nil {
				s.auditLog.Close()
			}
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/intent", s.handleIntent)
	mux.HandleFunc("POST /v1/content", s.handleContent)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	return s, nil
}

// Start begins listening for validation requests. Blocks until the context
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Addr returns the server's listen address. Only valid after Start is called.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Close closes the audit log and history store if configured.
func (s *Server) Close() error {
	var firstErr error
	if s.auditLog != nil {
		if err := s.auditLog.Close(); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// validateRequest is the POST /v1/validate body.
type validateRequest struct {
	RequestID        string            `json:"request_id,omitempty"`
	UserPrompt       string            `json:"user_prompt"`
	ProposedAction   string            `json:"proposed_action"`
	ActionParams     map[string]string `json:"action_params,omitempty"`
	EmailContent     string            `json:"email_content,omitempty"`
	ProposedResponse string            `json:"proposed_response,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if req.UserPrompt == "" || req.ProposedAction == "" {
		writeError(w, http.StatusBadRequest, "user_prompt and proposed_action are required")
		return
	}

	result := s.validator.ProcessRequest(model.ActionRequest{
		UserPrompt:     req.UserPrompt,
		ProposedAction: req.ProposedAction,
		ActionParams:   model.Params(req.ActionParams),
		EmailContent:   req.EmailContent,
	}, req.ProposedResponse)

	s.recordDecision(r.Context(), req, result)

	status := http.StatusOK
	if !result.Approved {
		status = http.StatusForbidden
	}
	writeJSON(w, status, result)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserPrompt string `json:"user_prompt"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	if req.UserPrompt == "" {
		writeError(w, http.StatusBadRequest, "user_prompt is required")
		return
	}

	kind, params := s.validator.ExtractIntent(req.UserPrompt)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_intent": string(kind),
		"params":      params,
	})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailContent     string `json:"email_content"`
		ProposedResponse string `json:"proposed_response"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	valid, reason := s.validator.CheckResponse(req.EmailContent, req.ProposedResponse)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  valid,
		"reason": reason,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"config_hash": s.configHash,
	})
}

// recordDecision writes the verdict to the audit log and history store.
// Recording failures go to stderr; they never change the HTTP response.
func (s *Server) recordDecision(ctx context.Context, req validateRequest, result model.ValidationResult) {
	if s.auditLog == nil && s.store == nil {
		return
	}
	id := req.RequestID
	if id == "" {
		id = "http-" + uuid.NewString()
	}

	if s.auditLog != nil {
		entry := audit.Entry{
			RequestID:  id,
			UserPrompt: req.UserPrompt,
			Action:     req.ProposedAction,
			UserIntent: string(result.UserIntent),
			Approved:   result.Approved,
			Reason:     result.Reason,
			ConfigHash: s.configHash,
		}
		if err := s.auditLog.Record(entry); err != nil {
			fmt.Fprintf(os.Stderr, "server: audit record %s: %v\n", id, err)
		}
	}
	if s.store != nil {
		d := history.Decision{
			ID:         id,
			UserPrompt: req.UserPrompt,
			Action:     req.ProposedAction,
			UserIntent: string(result.UserIntent),
			Approved:   result.Approved,
			Reason:     result.Reason,
		}
		if err := s.store.Record(ctx, &d); err != nil {
			fmt.Fprintf(os.Stderr, "server: history record %s: %v\n", id, err)
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
