package cli

import (
	"github.com/spf13/cobra"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	At      string
	Deleted bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <continuity-id>",
		Short: "Resolve a continuity at a revision",
		Long: `Resolve and print the version of a continuity applicable at a
revision. --at accepts a sequence number, a revision id, or an RFC 3339
timestamp; without it the latest committed revision is used. Deleted and
pending versions resolve as not found unless --deleted is given.

Example:
  revgraph show 0194fdc2-... --at 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "revision reference (sequence, revision id, or RFC 3339 time)")
	cmd.Flags().BoolVar(&opts.Deleted, "deleted", false, "include deleted and pending versions")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command, id string) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	resolver := a.engine.Resolver()
	ref := parseRef(opts.At)

	resolve := resolver.Resolve
	if opts.Deleted {
		resolve = resolver.ResolveIncludingDeleted
	}
	version, err := resolve(cmd.Context(), id, ref)
	if err != nil {
		return classifyError(err)
	}

	payload, err := toVersionPayload(version)
	if err != nil {
		return classifyError(err)
	}
	return a.out.Successf(payload, "%s (%s) at revision %s (sequence %d): state=%s attrs=%s",
		payload.ContinuityID, payload.Class, payload.RevisionID, payload.Sequence, payload.State, payload.Attrs)
}
