package cli

import (
	"github.com/spf13/cobra"

	"github.com/revgraph/revgraph/internal/engine"
)

// transitionCommand builds one of the delete/undelete/approve/reject
// commands; they differ only in the session call they stage.
func transitionCommand(rootOpts *RootOptions, use, short, long string, apply func(*engine.Session, *cobra.Command, string) error) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:           use + " <continuity-id>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return runTransition(rootOpts, c, message, use, func(s *engine.Session) error {
			return apply(s, c, args[0])
		})
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "revision log message")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return transitionCommand(rootOpts, "delete",
		"Mark a continuity deleted",
		`Stage and commit a delete transition. The history is retained; the
continuity simply resolves as not found until undeleted. Moderated
classes transition to pending-deleted instead.`,
		func(s *engine.Session, c *cobra.Command, id string) error {
			return s.Delete(c.Context(), id)
		})
}

// NewUndeleteCommand creates the undelete command.
func NewUndeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return transitionCommand(rootOpts, "undelete",
		"Restore a deleted continuity",
		`Stage and commit an undelete transition: the continuity becomes active
again with its last attribute snapshot intact.`,
		func(s *engine.Session, c *cobra.Command, id string) error {
			return s.Undelete(c.Context(), id)
		})
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	return transitionCommand(rootOpts, "approve",
		"Approve a pending change",
		`Stage and commit the moderator approval of a pending change:
pending-active becomes active, pending-deleted becomes deleted.`,
		func(s *engine.Session, c *cobra.Command, id string) error {
			return s.Approve(c.Context(), id)
		})
}

// NewRejectCommand creates the reject command.
func NewRejectCommand(rootOpts *RootOptions) *cobra.Command {
	return transitionCommand(rootOpts, "reject",
		"Reject a pending change",
		`Stage and commit the moderator rejection of a pending change: the head
reverts to the last approved version.`,
		func(s *engine.Session, c *cobra.Command, id string) error {
			return s.Reject(c.Context(), id)
		})
}
