package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowboard",
	Short: "Flowboard workflow board",
	Long: `Flowboard tracks tasks on a board of workflow statuses, with WIP limits,
swimlanes, status history and column metrics.

Run 'flowboard serve' to start the server, and 'flowboard init <name>' in a
project directory to point the other commands at a board.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFlag {
		case formatText, formatJSON, formatYAML:
			return nil
		}
		return fmt.Errorf("invalid --output %q: use text, json or yaml", outputFlag)
	},
}

// Global flags
var (
	jsonOutput bool
	outputFlag string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (same as --output json)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", formatText, "Output format: text, json or yaml")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		handleError(err)
	}
	os.Exit(ExitSuccess)
}
