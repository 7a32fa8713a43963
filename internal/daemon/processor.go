package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/model"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

// ProcessorConfig holds runtime configuration for request processing.
type ProcessorConfig struct {
	Dirs       DirConfig
	Validator  *proxy.Validator
	AuditLog   *audit.Log     // optional; nil disables audit recording
	History    *history.Store // optional; nil disables decision history
	ConfigHash string
}

// Processor handles request lifecycle transitions.
type Processor struct {
	cfg ProcessorConfig
}

// NewProcessor creates a processor with the given configuration.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Validator == nil {
		cfg.Validator = proxy.New()
	}
	return &Processor{cfg: cfg}
}

// Process handles a single request file through its full lifecycle:
// read → validate envelope → move to processing → evaluate → write result
// to outbox.
func (p *Processor) Process(ctx context.Context, reqPath string) error {
	// Structural symlink defense: reject symlinks before reading.
	// Without this, a symlink to a valid JSON file elsewhere on the
	// filesystem would be processed as a legitimate request.
	fi, err := os.Lstat(reqPath)
	if err != nil {
		return fmt.Errorf("stat request file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(reqPath))
	}

	data, err := os.ReadFile(reqPath)
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		_ = moveFile(reqPath, filepath.Join(p.cfg.Dirs.FailedDir(), filepath.Base(reqPath)))
		return p.writeFailedResult(filepath.Base(reqPath), fmt.Sprintf("invalid JSON: %v", err))
	}

	if err := ValidateRequest(&req); err != nil {
		_ = moveFile(reqPath, filepath.Join(p.cfg.Dirs.FailedDir(), filepath.Base(reqPath)))
		return p.writeFailedResult(req.ID, fmt.Sprintf("validation failed: %v", err))
	}

	// Move to processing state. Uses moveFile to handle systemd bind mounts (EXDEV).
	processingPath := filepath.Join(p.cfg.Dirs.ProcessingDir(), req.ID+".json")
	if err := moveFile(reqPath, processingPath); err != nil {
		return fmt.Errorf("move to processing: %w", err)
	}

	result := p.evaluate(ctx, &req)

	if err := p.writeResult(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	// Clean up processing file.
	_ = os.Remove(processingPath)
	return nil
}

// evaluate runs the intent-alignment validator over a request and records
// the decision in the audit log and history store when configured.
func (p *Processor) evaluate(ctx context.Context, req *Request) *Result {
	vr := p.cfg.Validator.ProcessRequest(model.ActionRequest{
		UserPrompt:     req.UserPrompt,
		ProposedAction: req.ProposedAction,
		ActionParams:   req.ActionParams,
		EmailContent:   req.EmailContent,
	}, req.ProposedResponse)

	result := &Result{
		ID:          req.ID,
		Status:      ResultDone,
		Approved:    vr.Approved,
		Reason:      vr.Reason,
		UserIntent:  string(vr.UserIntent),
		CompletedAt: time.Now().UTC(),
	}

	if p.cfg.AuditLog != nil {
		entry := audit.Entry{
			RequestID:  req.ID,
			UserPrompt: req.UserPrompt,
			Action:     req.ProposedAction,
			UserIntent: string(vr.UserIntent),
			Approved:   vr.Approved,
			Reason:     vr.Reason,
			ConfigHash: p.cfg.ConfigHash,
		}
		if err := p.cfg.AuditLog.Record(entry); err != nil {
			fmt.Fprintf(os.Stderr, "daemon: audit record %s: %v\n", req.ID, err)
		}
	}

	if p.cfg.History != nil {
		d := history.Decision{
			ID:         req.ID,
			UserPrompt: req.UserPrompt,
			Action:     req.ProposedAction,
			UserIntent: string(vr.UserIntent),
			Approved:   vr.Approved,
			Reason:     vr.Reason,
		}
		if err := p.cfg.History.Record(ctx, &d); err != nil {
			fmt.Fprintf(os.Stderr, "daemon: history record %s: %v\n", req.ID, err)
		}
	}

	return result
}

// writeResult writes a result to the outbox directory atomically.
func (p *Processor) writeResult(r *Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	filename := r.ID + ".json"
	tmpPath := filepath.Join(p.cfg.Dirs.Outbox, filename+".tmp")
	finalPath := filepath.Join(p.cfg.Dirs.Outbox, filename)

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmpPath, finalPath)
}

// writeFailedResult writes a minimal failed result when the request
// envelope can't be parsed.
func (p *Processor) writeFailedResult(id string, errMsg string) error {
	if id == "" {
		id = fmt.Sprintf("unknown-%d", time.Now().UnixNano())
	}
	r := &Result{
		ID:          sanitizeResultID(id),
		Status:      ResultFailed,
		Error:       errMsg,
		CompletedAt: time.Now().UTC(),
	}
	return p.writeResult(r)
}

// sanitizeResultID strips a .json suffix and replaces path separators so a
// malformed filename can still name an outbox result safely.
func sanitizeResultID(id string) string {
	id = filepath.Base(id)
	if ext := filepath.Ext(id); ext == ".json" {
		id = id[:len(id)-len(ext)]
	}
	return id
}
