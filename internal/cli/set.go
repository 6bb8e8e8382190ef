package cli

import (
	"github.com/spf13/cobra"

	"github.com/revgraph/revgraph/internal/engine"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Message string
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <class> <id|new> key=value...",
		Short: "Stage and commit an attribute snapshot",
		Long: `Open a session, stage a new attribute snapshot for a continuity, and
commit it as one revision. Pass "new" as the id to create a continuity.

Values parse as JSON where possible (numbers, booleans, lists) and fall
back to plain strings.

Example:
  revgraph set Book new name=warandpeace title="War and Peace"
  revgraph set Book 0194fdc2-... title="War and Peace" --message "fix typo"`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, cmd, args[0], args[1], args[2:])
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "revision log message")

	return cmd
}

func runSet(opts *SetOptions, cmd *cobra.Command, class, id string, attrArgs []string) error {
	attrs, err := parseAttrArgs(attrArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "parsing attributes", err)
	}
	if id == "new" {
		id = ""
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var staged engine.PendingVersion
	rev, err := a.commitOne(cmd.Context(), opts.Author, opts.Message, func(s *engine.Session) error {
		var serr error
		staged, serr = s.Stage(cmd.Context(), id, class, attrs)
		return serr
	})
	if err != nil {
		return classifyError(err)
	}

	payload := map[string]any{
		"revision":   toRevisionPayload(rev),
		"continuity": staged.ContinuityID,
	}
	return a.out.Successf(payload, "committed revision %d (%s): %s %s",
		rev.Sequence, rev.ID, class, staged.ContinuityID)
}

// runTransition is shared by the transition commands; they all commit a
// one-shot session the same way set does.
func runTransition(rootOpts *RootOptions, cmd *cobra.Command, message, verb string, apply func(*engine.Session) error) error {
	a, err := openApp(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rev, err := a.commitOne(cmd.Context(), rootOpts.Author, message, apply)
	if err != nil {
		return classifyError(err)
	}
	return a.out.Successf(
		map[string]any{"revision": toRevisionPayload(rev)},
		"%s committed as revision %d (%s)", verb, rev.Sequence, rev.ID,
	)
}
