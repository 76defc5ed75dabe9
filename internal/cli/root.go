// Package cli implements the streamcheck command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamcheck/streamcheck/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Journal string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the streamcheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	cmd := &cobra.Command{
		Use:   "streamcheck",
		Short: "Verify change-event streams against declarative expectations",
		Long: "streamcheck replays journaled change-event captures through a\n" +
			"typed-record verifier, checking schemas and values against YAML\n" +
			"scenario expectations.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags; config file and environment provide the defaults.
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", cfg.Journal, "journal database path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", cfg.Format, "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
