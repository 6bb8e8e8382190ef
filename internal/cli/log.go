package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "log",
		Short:         "List committed revisions in sequence order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(rootOpts, cmd)
		},
	}
}

func runLog(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	revisions, err := a.store.ListRevisions(cmd.Context())
	if err != nil {
		return classifyError(err)
	}

	if a.out.Format == "json" {
		payload := make([]revisionPayload, len(revisions))
		for i, rev := range revisions {
			payload[i] = toRevisionPayload(rev)
		}
		return a.out.Success(payload)
	}

	for _, rev := range revisions {
		line := fmt.Sprintf("%6d  %s  %-12s", rev.Sequence, rev.ID, rev.Author)
		if rev.Message != "" {
			line += "  " + rev.Message
		}
		fmt.Fprintln(a.out.Writer, line)
	}
	return nil
}
