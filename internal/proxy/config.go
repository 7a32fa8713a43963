package proxy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mailwarden/internal/content"
	"github.com/ppiankov/mailwarden/internal/intent"
)

// VerbSet holds the verb vocabularies for the three non-unknown kinds.
type VerbSet struct {
	Read   []string `yaml:"read"`
	Write  []string `yaml:"write"`
	Delete []string `yaml:"delete"`
}

// ContentConfig holds the content-consistency checker parameters.
// The default thresholds (1.5x length, 30% novel words) are part of the
// observable contract — override them only with a deliberate behavioral
// break in mind.
type ContentConfig struct {
	MaxLengthRatio    float64  `yaml:"max_length_ratio"`
	MaxNovelWordRatio float64  `yaml:"max_novel_word_ratio"`
	Indicators        []string `yaml:"indicators"`
}

// Config holds all configurable validator parameters.
type Config struct {
	PromptVerbs VerbSet       `yaml:"prompt_verbs"`
	ActionVerbs VerbSet       `yaml:"action_verbs"`
	Content     ContentConfig `yaml:"content"`
}

// DefaultConfig returns the built-in configuration matching the fixed
// vocabularies and thresholds.
func DefaultConfig() *Config {
	return &Config{
		PromptVerbs: VerbSet{
			Read:   append([]string(nil), intent.DefaultReadVerbs...),
			Write:  append([]string(nil), intent.DefaultWriteVerbs...),
			Delete: append([]string(nil), intent.DefaultDeleteVerbs...),
		},
		ActionVerbs: VerbSet{
			Read:   append([]string(nil), intent.DefaultReadActions...),
			Write:  append([]string(nil), intent.DefaultWriteActions...),
			Delete: append([]string(nil), intent.DefaultDeleteActions...),
		},
		Content: ContentConfig{
			MaxLengthRatio:    content.DefaultMaxLengthRatio,
			MaxNovelWordRatio: content.DefaultMaxNovelWordRatio,
			Indicators:        append([]string(nil), content.DefaultIndicators...),
		},
	}
}

// LoadConfig loads validator configuration from a YAML file.
// Empty path falls back to ~/.mailwarden/proxy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads validator configuration and returns the SHA-256
// of the raw YAML bytes, for recording which config produced a decision.
// When no file exists (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".mailwarden", "proxy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("read validator config: %w", err)
	}

	// Start with defaults; YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("parse validator config: %w", err)
	}

	h := sha256.Sum256(data)
	return cfg, "sha256:" + hex.EncodeToString(h[:]), nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}
