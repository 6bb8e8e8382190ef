package cli

import (
	"github.com/spf13/cobra"

	"github.com/revgraph/revgraph/internal/engine"
)

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "link <class> <left-id> <right-id>",
		Short: "Create a versioned association between two entities",
		Long: `Stage and commit an association of the given class between two
entities. The pair is unordered: linking A to B and B to A address the
same association. Removal with unlink is versioned the same way, so past
revisions still see the link.

Example:
  revgraph link Authorship 0194fdc2-... 0194fdd0-...`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runTransition(rootOpts, c, message, "link", func(s *engine.Session) error {
				return s.Link(c.Context(), args[0], args[1], args[2])
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "revision log message")
	return cmd
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:           "unlink <class> <left-id> <right-id>",
		Short:         "Remove a versioned association",
		Long:          `Stage and commit removal of an association. The removal is itself versioned: as-of reads before this revision still resolve the link.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			return runTransition(rootOpts, c, message, "unlink", func(s *engine.Session) error {
				return s.Unlink(c.Context(), args[0], args[1], args[2])
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "revision log message")
	return cmd
}
