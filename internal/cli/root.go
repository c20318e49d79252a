// Package cli wires the cobra commands for the timetravel service.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the timetravel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "timetravel",
		Short: "timetravel - key-value record store with revision history",
		Long: `A key-value record store exposed over HTTP.

Records are string-keyed maps addressed by slug. The versioned mode
keeps a linear revision history per record: every update archives the
prior state and advances the version, and any past version can be read
back.`,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}
