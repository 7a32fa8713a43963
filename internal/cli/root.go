// Package cli implements the mailwarden command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/integrity"
)

var rootCmd = &cobra.Command{
	Use:   "mailwarden",
	Short: "Intent-alignment guardrail for email agents",
	Long: "Sits between a user's natural-language request and an email agent's\n" +
		"proposed action. Extracts the user's intent, classifies the action,\n" +
		"reconciles parameters, and checks response content for deception.\n" +
		"Actions that cannot be aligned with the request are rejected.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
