// mailwarden-maildrop reads an email from stdin and creates a validation
// request in the mailwarden daemon inbox. Designed to be called by Postfix
// or sendmail as a pipe transport.
//
// Usage in /etc/aliases:
//
//	mailwarden: |/usr/local/bin/mailwarden-maildrop
//
// Environment variables:
//
//	MAILWARDEN_INBOX      inbox directory (default: /var/lib/mailwarden/inbox)
//	MAILWARDEN_ALLOWLIST  sender allowlist file (default: /etc/mailwarden/allowlist.txt)
//	MAILWARDEN_STATE      state directory for rate limiting (default: /var/lib/mailwarden/state)
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/mailwarden/internal/intake"
)

func main() {
	cfg := intake.Config{
		InboxDir:      envOrDefault("MAILWARDEN_INBOX", "/var/lib/mailwarden/inbox"),
		AllowlistFile: envOrDefault("MAILWARDEN_ALLOWLIST", "/etc/mailwarden/allowlist.txt"),
		RateLimitDir:  filepath.Join(envOrDefault("MAILWARDEN_STATE", "/var/lib/mailwarden/state"), "ratelimit"),
		RateLimit:     10,
		RateWindow:    1 * time.Hour,
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailwarden-maildrop: read stdin: %v\n", err)
		os.Exit(1)
	}

	if len(raw) == 0 {
		fmt.Fprintf(os.Stderr, "mailwarden-maildrop: empty input\n")
		os.Exit(1)
	}

	if err := intake.ProcessEmail(cfg, raw); err != nil {
		fmt.Fprintf(os.Stderr, "mailwarden-maildrop: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
