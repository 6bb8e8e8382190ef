package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revgraph/revgraph/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database",
		Long: `Create the database file if it does not exist and apply schema
migrations. Safe to run repeatedly.

Example:
  revgraph --db library.db init`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(rootOpts.DB)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("initializing %s", rootOpts.DB), err)
			}
			defer s.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return out.Successf(map[string]string{"database": rootOpts.DB}, "initialized %s", rootOpts.DB)
		},
	}
}
