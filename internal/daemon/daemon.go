package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

// Config holds full daemon configuration.
type Config struct {
	Dirs         DirConfig
	ConfigPath   string // validator YAML config; empty uses defaults
	AuditPath    string // hash-chained audit log; empty disables
	HistoryPath  string // sqlite decision history; empty disables
	PollMode     bool
	PollInterval time.Duration
}

// Daemon watches the inbox directory and processes validation requests.
type Daemon struct {
	cfg       Config
	processor *Processor
	auditLog  *audit.Log
	store     *history.Store
}

// New creates a daemon with validated configuration.
func New(cfg Config) (*Daemon, error) {
	if cfg.Dirs.Inbox == "" || cfg.Dirs.Outbox == "" || cfg.Dirs.State == "" {
		return nil, fmt.Errorf("inbox, outbox, and state directories are required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}

	proxyCfg, cfgHash, err := proxy.LoadConfigWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load validator config: %w", err)
	}
	validator, err := proxy.NewFromConfig(proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	d := &Daemon{cfg: cfg}

	if cfg.AuditPath != "" {
		log, err := audit.Open(cfg.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		d.auditLog = log
	}
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			if d.auditLog != nil {
				_ = d.auditLog.Close()
			}
			return nil, fmt.Errorf("open history store: %w", err)
		}
		d.store = store
	}

	d.processor = NewProcessor(ProcessorConfig{
		Dirs:       cfg.Dirs,
		Validator:  validator,
		AuditLog:   d.auditLog,
		History:    d.store,
		ConfigHash: cfgHash,
	})

	return d, nil
}

// Close releases the audit log and history store.
func (d *Daemon) Close() error {
	var firstErr error
	if d.auditLog != nil {
		if err := d.auditLog.Close(); err != nil {
			firstErr = err
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run starts the daemon. Blocks until ctx is cancelled.
// On startup, processes any existing inbox files and orphaned processing files.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// Acquire PID file lock to prevent duplicate instances.
	pidPath := filepath.Join(d.cfg.Dirs.State, "daemon.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	// Recovery: convert orphaned processing files to failed results.
	if err := d.recoverOrphans(); err != nil {
		return fmt.Errorf("recover orphans: %w", err)
	}

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "daemon: process %s: %v\n", filepath.Base(path), err)
		}
	}

	// Process any existing inbox files.
	if err := ScanExisting(d.cfg.Dirs.Inbox, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if d.cfg.PollMode {
		pw := NewPollWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewInboxWatcher(d.cfg.Dirs.Inbox, handler)
	return w.Run(ctx)
}

// recoverOrphans converts files left in state/processing/ to failed results.
// These are requests that were in flight when the daemon stopped.
func (d *Daemon) recoverOrphans() error {
	procDir := d.cfg.Dirs.ProcessingDir()
	entries, err := os.ReadDir(procDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !isRequestFile(e.Name()) {
			continue
		}
		id := e.Name()[:len(e.Name())-5] // strip .json
		result := &Result{
			ID:          id,
			Status:      ResultFailed,
			Error:       "interrupted: request was processing when daemon stopped",
			CompletedAt: time.Now().UTC(),
		}
		if err := d.processor.writeResult(result); err != nil {
			fmt.Fprintf(os.Stderr, "daemon: recover orphan %s: %v\n", id, err)
		}
		_ = os.Remove(filepath.Join(procDir, e.Name()))
	}
	return nil
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file — remove it.
		_ = os.Remove(path)
	}

	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
