package cli

import (
	"github.com/spf13/cobra"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	Confirm bool
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge <continuity-id>",
		Short: "Irreversibly remove a continuity and its entire history",
		Long: `Remove a continuity and every version it ever had. Unlike delete,
purge is NOT versioned and NOT reversible: afterwards the continuity
resolves as not found at every revision, including revisions from before
the purge. Requires --confirm.

Example:
  revgraph purge 0194fdc2-... --confirm`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "confirm the irreversible purge")

	return cmd
}

func runPurge(opts *PurgeOptions, cmd *cobra.Command, id string) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.engine.OpenSession(opts.Author)
	if err != nil {
		return classifyError(err)
	}
	defer session.Rollback()

	if err := session.Purge(cmd.Context(), id, opts.Confirm); err != nil {
		return classifyError(err)
	}

	return a.out.Successf(map[string]string{"purged": id}, "purged %s", id)
}
