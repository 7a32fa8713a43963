package mailwarden

import (
	"fmt"
	"sync"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

// Client holds the validation pipeline for in-process enforcement.
// Thread-safe for concurrent tool calls.
type Client struct {
	cfg        clientConfig
	validator  *proxy.Validator
	auditLog   *audit.Log
	store      *history.Store
	configHash string
	mu         sync.Mutex
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{source: "sdk-go"}
	for _, o := range opts {
		o(&cfg)
	}

	proxyCfg, hash, err := proxy.LoadConfigWithHash(cfg.configPath)
	if err != nil {
		return nil, fmt.Errorf("mailwarden: load config: %w", err)
	}
	validator, err := proxy.NewFromConfig(proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("mailwarden: build validator: %w", err)
	}

	c := &Client{cfg: cfg, validator: validator, configHash: hash}

	if cfg.auditPath != "" {
		log, err := audit.Open(cfg.auditPath)
		if err != nil {
			return nil, fmt.Errorf("mailwarden: open audit log: %w", err)
		}
		c.auditLog = log
	}
	if cfg.historyPath != "" {
		store, err := history.Open(cfg.historyPath)
		if err != nil {
			if c.auditLog != nil {
				c.auditLog.Close()
			}
			return nil, fmt.Errorf("mailwarden: open history: %w", err)
		}
		c.store = store
	}

	return c, nil
}

// Check validates an action without executing anything and without
// recording a decision.
func (c *Client) Check(action Action) Result {
	return toResult(c.validator.ProcessRequest(toInternalRequest(action), action.Response))
}

// Close releases the audit log and history store, if open.
func (c *Client) Close() error {
	var firstErr error
	if c.auditLog != nil {
		if err := c.auditLog.Close(); err != nil {
			firstErr = err
		}
		c.auditLog = nil
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.store = nil
	}
	return firstErr
}
