package mailwarden

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
)

// ToolFunc is the function signature that Wrap guards.
// The caller provides an Action describing the intended operation.
type ToolFunc func(ctx context.Context, action Action) (any, error)

// Wrap returns a new ToolFunc that validates intent alignment before
// calling fn. If validation rejects the action, Wrap returns a
// *BlockedError without calling fn. Every decision is recorded to the
// audit log and history store when those are enabled.
func (c *Client) Wrap(fn ToolFunc, opts ...WrapOption) ToolFunc {
	wcfg := wrapConfig{source: c.cfg.source}
	for _, o := range opts {
		o(&wcfg)
	}

	return func(ctx context.Context, action Action) (any, error) {
		result := c.Check(action)
		c.recordDecision(ctx, wcfg.source, action, result)

		if !result.Approved {
			return nil, &BlockedError{
				Action:     action,
				Reason:     result.Reason,
				UserIntent: result.UserIntent,
			}
		}
		return fn(ctx, action)
	}
}

// recordDecision writes one decision to the audit log and history store.
// Recording failures are reported on stderr, never surfaced to the tool
// call: a broken log must not change enforcement behavior.
func (c *Client) recordDecision(ctx context.Context, source string, action Action, result Result) {
	if c.auditLog == nil && c.store == nil {
		return
	}
	id := source + "-" + uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auditLog != nil {
		entry := audit.Entry{
			RequestID:  id,
			UserPrompt: action.UserPrompt,
			Action:     action.Tool,
			UserIntent: result.UserIntent,
			Approved:   result.Approved,
			Reason:     result.Reason,
			ConfigHash: c.configHash,
		}
		if err := c.auditLog.Record(entry); err != nil {
			fmt.Fprintf(os.Stderr, "mailwarden: audit record: %v\n", err)
		}
	}
	if c.store != nil {
		d := history.Decision{
			ID:         id,
			UserPrompt: action.UserPrompt,
			Action:     action.Tool,
			UserIntent: result.UserIntent,
			Approved:   result.Approved,
			Reason:     result.Reason,
		}
		if err := c.store.Record(ctx, &d); err != nil {
			fmt.Fprintf(os.Stderr, "mailwarden: history record: %v\n", err)
		}
	}
}
