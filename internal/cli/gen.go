package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/attack"
)

var (
	genScenarios   []string
	genNumPrompts  int
	genOutputDir   string
	genTemplateDir string
	genAPIURL      string
	genAPIKey      string
	genModel       string
	genSeed        int64
)

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().StringSliceVar(&genScenarios, "scenarios", []string{"all"}, "Scenarios to generate (all, Privacy_Harvesting, Phishing_Email_Sending, Deceptive_Output, Email_Service_Pollution)")
	genCmd.Flags().IntVar(&genNumPrompts, "num-prompts", 5, "Number of prompts per scenario")
	genCmd.Flags().StringVar(&genOutputDir, "output-dir", "generated_prompts", "Directory to save generated prompts")
	genCmd.Flags().StringVar(&genTemplateDir, "template-dir", "attack_scenario_prompts", "Directory holding scenario templates")
	genCmd.Flags().StringVar(&genAPIURL, "api-url", "", "OpenAI-compatible endpoint for LLM rewriting (omit for local rewriting)")
	genCmd.Flags().StringVar(&genAPIKey, "api-key", "", "API key for the LLM endpoint")
	genCmd.Flags().StringVar(&genModel, "model", "", "Model name for the LLM endpoint")
	genCmd.Flags().Int64Var(&genSeed, "seed", 0, "Seed for local rewriting (0 uses current time)")
}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate adversarial prompts for guardrail testing",
	Long: "Loads attack scenario templates and produces natural-language prompt\n" +
		"variations, one JSON file per scenario. With --api-url the variations\n" +
		"come from an LLM; otherwise a deterministic local rewriter is used.\n\n" +
		"Feed the output through 'mailwarden check' scenarios to confirm the\n" +
		"validator rejects them.",
	RunE: runGen,
}

func runGen(cmd *cobra.Command, args []string) error {
	var rewriter attack.Rewriter
	if genAPIURL != "" {
		rewriter = &attack.LLMRewriter{
			APIURL: genAPIURL,
			APIKey: genAPIKey,
			Model:  genModel,
		}
	} else {
		seed := genSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rewriter = attack.NewLocalRewriter(seed)
	}

	g := attack.NewGenerator(genTemplateDir, rewriter)

	keys := genScenarios
	if len(keys) == 1 && keys[0] == "all" {
		keys = attack.AllScenarioKeys()
	}

	fmt.Printf("Generating %d prompts per scenario: %v\n", genNumPrompts, keys)

	results, genErr := g.Generate(cmd.Context(), keys, genNumPrompts)

	for key, prompts := range results {
		fmt.Printf("\n%s:\n", key)
		for i, p := range prompts {
			preview := p
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			fmt.Printf("  Prompt %d: %s\n", i+1, preview)
		}
	}

	if err := g.Save(genOutputDir); err != nil {
		return err
	}
	fmt.Printf("\nSaved prompts to %s\n", genOutputDir)

	// Partial generation (e.g. rate limiting) still saves what was produced.
	return genErr
}
