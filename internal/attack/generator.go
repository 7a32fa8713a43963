package attack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/neurorouter"
)

// Generator produces attack prompt variations for a set of scenarios.
type Generator struct {
	scenarios map[string]*Scenario
	rewriter  Rewriter
	generated map[string][]string
}

// NewGenerator creates a generator over templates in templateDir.
// A nil rewriter falls back to deterministic local rewriting.
func NewGenerator(templateDir string, rewriter Rewriter) *Generator {
	if rewriter == nil {
		rewriter = NewLocalRewriter(1)
	}
	return &Generator{
		scenarios: LoadScenarios(templateDir),
		rewriter:  rewriter,
		generated: make(map[string][]string),
	}
}

// Generate produces numPrompts variations per requested scenario key.
// Unknown keys are skipped with a warning. When the rewriter reports
// rate limiting, generation stops and partial results are returned
// with the error so the caller can retry later.
func (g *Generator) Generate(ctx context.Context, keys []string, numPrompts int) (map[string][]string, error) {
	if numPrompts <= 0 {
		numPrompts = 5
	}

	results := make(map[string][]string)
	for _, key := range keys {
		sc, ok := g.scenarios[key]
		if !ok {
			fmt.Fprintf(os.Stderr, "attack: unknown scenario: %s\n", key)
			continue
		}

		prompts := make([]string, 0, numPrompts)
		for i := 0; i < numPrompts; i++ {
			select {
			case <-ctx.Done():
				results[key] = prompts
				return results, ctx.Err()
			default:
			}

			prompt, err := g.rewriter.Rewrite(ctx, sc.Template)
			if err != nil {
				results[key] = prompts
				if errors.Is(err, neurorouter.ErrRateLimited) {
					fmt.Fprintf(os.Stderr, "attack: LLM rate limited, deferring remaining prompts\n")
					return results, err
				}
				return results, fmt.Errorf("rewrite %s: %w", key, err)
			}
			prompts = append(prompts, prompt)
			g.generated[key] = append(g.generated[key], prompt)
		}
		results[key] = prompts
	}

	return results, nil
}

// promptFile is the JSON document written per scenario.
type promptFile struct {
	Scenario string   `json:"scenario"`
	Prompts  []string `json:"prompts"`
}

// Save writes all generated prompts to outputDir, one
// <Key>_prompts.json file per scenario with accumulated prompts.
func (g *Generator) Save(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for key, prompts := range g.generated {
		if len(prompts) == 0 {
			continue
		}
		sc := g.scenarios[key]
		doc := promptFile{Scenario: sc.Name, Prompts: prompts}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal prompts %s: %w", key, err)
		}
		path := filepath.Join(outputDir, key+"_prompts.json")
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("write prompts %s: %w", key, err)
		}
	}
	return nil
}
