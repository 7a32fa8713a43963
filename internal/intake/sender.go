package intake

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Allowlist checks sender addresses against a configured list.
// Patterns are exact addresses or @domain.com wildcards, one per line;
// # lines are comments.
type Allowlist struct {
	patterns []string
}

// LoadAllowlist reads an allowlist file.
func LoadAllowlist(path string) (*Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open allowlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read allowlist: %w", err)
	}
	return &Allowlist{patterns: patterns}, nil
}

// IsAllowed reports whether the sender matches any pattern,
// case-insensitively.
func (a *Allowlist) IsAllowed(sender string) bool {
	sender = strings.ToLower(sender)
	for _, p := range a.patterns {
		if p == sender {
			return true
		}
		if strings.HasPrefix(p, "@") && strings.HasSuffix(sender, p) {
			return true
		}
	}
	return false
}

const (
	defaultRateLimit  = 10
	defaultRateWindow = 1 * time.Hour
)

// RateLimiter enforces per-sender request limits using state files, so it
// works across short-lived pipe-transport processes.
type RateLimiter struct {
	stateDir string
	limit    int
	window   time.Duration
}

type rateState struct {
	Timestamps []time.Time `json:"timestamps"`
}

// NewRateLimiter creates a limiter with per-sender state under stateDir.
func NewRateLimiter(stateDir string, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	return &RateLimiter{stateDir: stateDir, limit: limit, window: window}
}

// Check returns nil if the sender is within limits and records the attempt.
func (r *RateLimiter) Check(sender string) error {
	if err := os.MkdirAll(r.stateDir, 0750); err != nil {
		return fmt.Errorf("create rate limit dir: %w", err)
	}

	path := r.statePath(sender)
	state := loadRateState(path)

	cutoff := time.Now().Add(-r.window)
	var recent []time.Time
	for _, ts := range state.Timestamps {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= r.limit {
		return fmt.Errorf("rate limit exceeded: %d requests in the last %s for %s",
			len(recent), r.window, sender)
	}

	state.Timestamps = append(recent, time.Now().UTC())

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// statePath hashes the sender so addresses never appear as filenames.
func (r *RateLimiter) statePath(sender string) string {
	h := sha256.Sum256([]byte(sender))
	return filepath.Join(r.stateDir, hex.EncodeToString(h[:8])+".json")
}

func loadRateState(path string) *rateState {
	data, err := os.ReadFile(path)
	if err != nil {
		return &rateState{}
	}
	var s rateState
	if err := json.Unmarshal(data, &s); err != nil {
		return &rateState{}
	}
	return &s
}
