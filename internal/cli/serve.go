package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/proxy"
)

var (
	servePort     int
	serveConfig   string
	serveAuditLog string
	serveHistory  string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8487, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to validator YAML config")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Hash-chained audit log path (empty disables)")
	serveCmd.Flags().StringVar(&serveHistory, "history", "", "Sqlite decision history path (empty disables)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP validation API",
	Long: "Runs the validator as an HTTP server.\n\n" +
		"Endpoints:\n" +
		"  POST /v1/validate  full validation; 403 with a JSON body on rejection\n" +
		"  POST /v1/intent    intent extraction only\n" +
		"  POST /v1/content   response content check only\n" +
		"  GET  /healthz      liveness and config hash",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := proxy.NewServer(proxy.ServerConfig{
		Port:         servePort,
		ConfigPath:   serveConfig,
		AuditLogPath: serveAuditLog,
		HistoryPath:  serveHistory,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down validation server...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "mailwarden validation API listening on :%d\n", servePort)
	return srv.Start(ctx)
}
