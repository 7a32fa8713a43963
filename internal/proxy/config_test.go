package proxy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/mailwarden/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if len(cfg.PromptVerbs.Read) == 0 || cfg.Content.MaxLengthRatio != 1.5 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	if err := os.WriteFile(path, []byte("prompt_verbs: ["), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadConfigOverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.yaml")
	body := `
content:
  indicators:
    - "transfer the funds"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Content.Indicators) != 1 || cfg.Content.Indicators[0] != "transfer the funds" {
		t.Errorf("indicator override not applied: %v", cfg.Content.Indicators)
	}
	// Unspecified fields keep defaults.
	if cfg.Content.MaxLengthRatio != 1.5 {
		t.Errorf("length ratio should keep default, got %v", cfg.Content.MaxLengthRatio)
	}
	if len(cfg.PromptVerbs.Read) == 0 {
		t.Error("prompt verbs should keep defaults")
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("hash should be prefixed: %s", hash)
	}
}

func TestNewFromConfigCustomVocabulary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptVerbs.Read = append(cfg.PromptVerbs.Read, "summarize")

	v, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	kind, _ := v.ExtractIntent("summarize the email from john@example.com")
	if kind != model.IntentRead {
		t.Errorf("custom verb not honored, got %s", kind)
	}
}

func TestNewFromConfigRejectsBadVerb(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptVerbs.Write = []string{"(bad"}

	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatal("expected error for invalid verb pattern")
	}
}

func TestNewFromConfigNilYieldsDefaults(t *testing.T) {
	v, err := NewFromConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if kind := v.ClassifyAction("read_email"); kind != model.IntentRead {
		t.Errorf("default classifier missing, got %s", kind)
	}
}
