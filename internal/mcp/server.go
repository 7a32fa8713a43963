// Package mcp exposes the intent-alignment validator as MCP tools over
// stdio, so agent frameworks can gate email actions without linking
// against mailwarden directly.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath   string // validator YAML config; empty uses defaults
	AuditLogPath string // hash-chained audit log; empty disables
	HistoryPath  string // sqlite decision history; empty disables
}

// Server wraps the MCP SDK server with mailwarden validation tools.
type Server struct {
	mcpServer  *mcpsdk.Server
	validator  *proxy.Validator
	auditLog   *audit.Log
	store      *history.Store
	configHash string
}

// New creates an MCP server with a loaded validator and tools registered.
func New(cfg Config) (*Server, error) {
	proxyCfg, cfgHash, err := proxy.LoadConfigWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load validator config: %w", err)
	}
	validator, err := proxy.NewFromConfig(proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}

	s := &Server{
		validator:  validator,
		configHash: cfgHash,
	}

	if cfg.AuditLogPath != "" {
		s.auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}
	if cfg.HistoryPath != "" {
		s.store, err = history.Open(cfg.HistoryPath)
		if err != nil {
			if s.auditLog != nil {
				_ = s.auditLog.Close()
			}
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "mailwarden",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the audit log and history store.
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

// registerTools adds all mailwarden tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mailwarden_validate",
		Description: "Validate a proposed email agent action against the user's request. Rejected actions return an error with the reason.",
	}, s.handleValidate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mailwarden_extract_intent",
		Description: "Extract the user's intent (read/write/delete/unknown) and any email parameters from a natural-language prompt without validating an action.",
	}, s.handleExtractIntent)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mailwarden_check_content",
		Description: "Check a proposed agent response against the source email content for deceptive output (inflation, attack indicators, novel concepts).",
	}, s.handleCheckContent)
}
