package intake

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAllowlist(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allowlist.txt")
	if err := os.WriteFile(path, []byte(lines), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllowlistExactAndWildcard(t *testing.T) {
	path := writeAllowlist(t, "# operators\nops@example.com\n@corp.io\n")
	al, err := LoadAllowlist(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		sender string
		want   bool
	}{
		{"ops@example.com", true},
		{"OPS@EXAMPLE.COM", true},
		{"anyone@corp.io", true},
		{"anyone@corp.io.evil.net", false},
		{"other@example.com", false},
	}
	for _, tt := range tests {
		if got := al.IsAllowed(tt.sender); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.sender, got, tt.want)
		}
	}
}

func TestAllowlistMissingFile(t *testing.T) {
	if _, err := LoadAllowlist(filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Fatal("expected error for missing allowlist")
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(t.TempDir(), 3, time.Hour)

	for i := 0; i < 3; i++ {
		if err := rl.Check("ops@example.com"); err != nil {
			t.Fatalf("request %d should pass: %v", i, err)
		}
	}
	if err := rl.Check("ops@example.com"); err == nil {
		t.Fatal("fourth request should be rate limited")
	}

	// A different sender has independent state.
	if err := rl.Check("other@example.com"); err != nil {
		t.Errorf("other sender should pass: %v", err)
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(t.TempDir(), 1, 10*time.Millisecond)

	if err := rl.Check("ops@example.com"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := rl.Check("ops@example.com"); err != nil {
		t.Errorf("expired window should admit new request: %v", err)
	}
}
