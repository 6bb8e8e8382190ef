package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LinksOptions holds flags for the links command.
type LinksOptions struct {
	*RootOptions
	At string
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "links <class> <continuity-id>",
		Short: "List what a continuity was linked to, as of a revision",
		Long: `Answer "what was X related to, as of revision R": list the ids whose
association with the continuity resolves active at the given revision.
An empty class ("") matches every association class.

Example:
  revgraph links Authorship 0194fdc2-... --at 2`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "revision reference (sequence, revision id, or RFC 3339 time)")

	return cmd
}

func runLinks(opts *LinksOptions, cmd *cobra.Command, class, id string) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	others, err := a.engine.Resolver().ResolveLinks(cmd.Context(), class, id, parseRef(opts.At))
	if err != nil {
		return classifyError(err)
	}

	if a.out.Format == "json" {
		return a.out.Success(map[string]any{"continuity": id, "linked": others})
	}
	for _, other := range others {
		fmt.Fprintln(a.out.Writer, other)
	}
	return nil
}
