package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/mailwarden/internal/history"
)

var (
	historyDB     string
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDB, "db", "", "Path to the sqlite decision history (required)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of recent decisions to show")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
	_ = historyCmd.MarkFlagRequired("db")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent validation decisions",
	Long:  "Reads the sqlite decision history and prints the most recent decisions,\nnewest first.",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	decisions, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if historyFormat == "json" {
		out, err := json.MarshalIndent(decisions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(decisions) == 0 {
		fmt.Println("No decisions recorded.")
		return nil
	}

	for _, d := range decisions {
		verdict := "REJECT"
		if d.Approved {
			verdict = "APPROVE"
		}
		prompt := d.UserPrompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		fmt.Printf("%s  %-7s  %-8s  %-16s  %s\n",
			d.Timestamp.Format("2006-01-02 15:04:05"), verdict, d.UserIntent, d.Action, prompt)
		if !d.Approved {
			fmt.Printf("%s%s\n", strings.Repeat(" ", 21), d.Reason)
		}
	}
	return nil
}
