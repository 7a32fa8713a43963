package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/daemon"
	"github.com/ppiankov/mailwarden/internal/systemd"
)

var (
	daemonInbox        string
	daemonOutbox       string
	daemonState        string
	daemonConfig       string
	daemonAuditLog     string
	daemonHistory      string
	daemonPoll         bool
	daemonPollInterval time.Duration
)

func init() {
	rootCmd.AddCommand(daemonCmd)
	defaults := daemon.DefaultDirConfig()
	daemonCmd.Flags().StringVar(&daemonInbox, "inbox", defaults.Inbox, "Directory watched for request JSON files")
	daemonCmd.Flags().StringVar(&daemonOutbox, "outbox", defaults.Outbox, "Directory where results are written")
	daemonCmd.Flags().StringVar(&daemonState, "state", defaults.State, "Directory for processing state")
	daemonCmd.Flags().StringVar(&daemonConfig, "config", "", "Path to validator YAML config")
	daemonCmd.Flags().StringVar(&daemonAuditLog, "audit-log", "", "Hash-chained audit log path (empty disables)")
	daemonCmd.Flags().StringVar(&daemonHistory, "history", "", "Sqlite decision history path (empty disables)")
	daemonCmd.Flags().BoolVar(&daemonPoll, "poll", false, "Use polling instead of fsnotify (for NFS)")
	daemonCmd.Flags().DurationVar(&daemonPollInterval, "poll-interval", 5*time.Second, "Polling interval when --poll is set")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the inbox/outbox validation service",
	Long: "Watches the inbox directory for request JSON files, validates each\n" +
		"through the alignment pipeline, and writes decisions to the outbox.\n" +
		"Interrupted requests are recovered as failed results on restart.",
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if warning := systemd.CheckUnitFileIntegrity(); warning != "" {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", warning)
	}

	d, err := daemon.New(daemon.Config{
		Dirs: daemon.DirConfig{
			Inbox:  daemonInbox,
			Outbox: daemonOutbox,
			State:  daemonState,
		},
		ConfigPath:   daemonConfig,
		AuditPath:    daemonAuditLog,
		HistoryPath:  daemonHistory,
		PollMode:     daemonPoll,
		PollInterval: daemonPollInterval,
	})
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down daemon...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "mailwarden daemon watching %s\n", daemonInbox)
	return d.Run(ctx)
}
