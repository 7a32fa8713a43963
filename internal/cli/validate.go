package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/audit"
	"github.com/ppiankov/mailwarden/internal/history"
	"github.com/ppiankov/mailwarden/internal/model"
	"github.com/ppiankov/mailwarden/internal/proxy"
)

var (
	validatePrompt   string
	validateAction   string
	validateParams   []string
	validateEmail    string
	validateResponse string
	validateConfig   string
	validateAuditLog string
	validateHistory  string
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validatePrompt, "prompt", "", "User's natural-language request (required)")
	validateCmd.Flags().StringVar(&validateAction, "action", "", "Agent's proposed action, e.g. read_email (required)")
	validateCmd.Flags().StringArrayVar(&validateParams, "param", nil, "Action parameter as key=value (repeatable: from, to, subject)")
	validateCmd.Flags().StringVar(&validateEmail, "email-content", "", "Source email content for response checking")
	validateCmd.Flags().StringVar(&validateResponse, "response", "", "Agent's proposed response text")
	validateCmd.Flags().StringVar(&validateConfig, "config", "", "Path to validator YAML config")
	validateCmd.Flags().StringVar(&validateAuditLog, "audit-log", "", "Append the decision to this hash-chained audit log")
	validateCmd.Flags().StringVar(&validateHistory, "history", "", "Record the decision in this sqlite history database")
	_ = validateCmd.MarkFlagRequired("prompt")
	_ = validateCmd.MarkFlagRequired("action")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate one proposed action against a user request",
	Long: "Runs the full validation pipeline for a single request and prints the\n" +
		"decision as JSON.\n\n" +
		"Exit code 0 if the action is approved, 1 if rejected.",
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, cfgHash, err := proxy.LoadConfigWithHash(validateConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	v, err := proxy.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build validator: %w", err)
	}

	params, err := parseParams(validateParams)
	if err != nil {
		return err
	}

	result := v.ProcessRequest(model.ActionRequest{
		UserPrompt:     validatePrompt,
		ProposedAction: validateAction,
		ActionParams:   params,
		EmailContent:   validateEmail,
	}, validateResponse)

	if validateAuditLog != "" {
		log, err := audit.Open(validateAuditLog)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		recErr := log.Record(audit.Entry{
			RequestID:  "cli",
			UserPrompt: validatePrompt,
			Action:     validateAction,
			UserIntent: string(result.UserIntent),
			Approved:   result.Approved,
			Reason:     result.Reason,
			ConfigHash: cfgHash,
		})
		if closeErr := log.Close(); recErr == nil {
			recErr = closeErr
		}
		if recErr != nil {
			return fmt.Errorf("record audit: %w", recErr)
		}
	}

	if validateHistory != "" {
		store, err := history.Open(validateHistory)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		recErr := store.Record(cmd.Context(), &history.Decision{
			UserPrompt: validatePrompt,
			Action:     validateAction,
			UserIntent: string(result.UserIntent),
			Approved:   result.Approved,
			Reason:     result.Reason,
		})
		if closeErr := store.Close(); recErr == nil {
			recErr = closeErr
		}
		if recErr != nil {
			return fmt.Errorf("record history: %w", recErr)
		}
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Approved {
		os.Exit(1)
	}
	return nil
}

// parseParams converts repeated key=value flags into action parameters.
func parseParams(raw []string) (model.Params, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(model.Params, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", kv)
		}
		params[key] = value
	}
	return params, nil
}
