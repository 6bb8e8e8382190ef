package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <continuity-id>",
		Short:         "List every version of a continuity, oldest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd, args[0])
		},
	}
}

func runHistory(opts *RootOptions, cmd *cobra.Command, id string) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	versions, err := a.store.VersionsOf(cmd.Context(), id)
	if err != nil {
		return classifyError(err)
	}
	if len(versions) == 0 {
		return WrapExitError(ExitFailure, "not found", fmt.Errorf("continuity %s has no versions", id))
	}

	if a.out.Format == "json" {
		payload := make([]versionPayload, len(versions))
		for i, v := range versions {
			p, err := toVersionPayload(v)
			if err != nil {
				return classifyError(err)
			}
			payload[i] = p
		}
		return a.out.Success(payload)
	}

	for _, v := range versions {
		p, err := toVersionPayload(v)
		if err != nil {
			return classifyError(err)
		}
		fmt.Fprintf(a.out.Writer, "%6d  %-15s  %s\n", p.Sequence, p.State, p.Attrs)
	}
	return nil
}
