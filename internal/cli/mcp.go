package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	wardenmcp "github.com/ppiankov/mailwarden/internal/mcp"
)

var (
	mcpConfig   string
	mcpAuditLog string
	mcpHistory  string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpConfig, "config", "", "Path to validator YAML config")
	mcpCmd.Flags().StringVar(&mcpAuditLog, "audit-log", "", "Hash-chained audit log path (empty disables)")
	mcpCmd.Flags().StringVar(&mcpHistory, "history", "", "Sqlite decision history path (empty disables)")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs mailwarden as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes validation tools: validate, extract_intent, check_content.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := wardenmcp.New(wardenmcp.Config{
		ConfigPath:   mcpConfig,
		AuditLogPath: mcpAuditLog,
		HistoryPath:  mcpHistory,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "mailwarden MCP server running on stdio")
	return srv.Run(ctx)
}
