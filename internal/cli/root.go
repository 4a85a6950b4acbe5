package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Journal string // sqlite journal path; empty disables journaling
	Cache   string // bbolt download cache path; empty disables caching
	Resume  string // journal session to append to instead of starting one
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rivecq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rivecq",
		Short: "rivecq - Rive command queue client",
		Long: `Drive a Rive backend through its command queue.

Scenes are loaded into the built-in simulator backend. Every command and
reply can be journaled to SQLite with --journal and read back with trace.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "record commands and replies to this SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "cache downloaded scenes in this bbolt database")

	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
