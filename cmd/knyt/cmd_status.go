package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/knyt/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged, modified, deleted and untracked files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			report, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "on branch %s\n", currentBranchLabel(r))
			if state, err := r.MergeState(); err == nil && state == repo.MergeConflictPending {
				fmt.Fprintln(out, "merge in progress; resolve conflicts, add, then run 'knyt merge --continue'")
			}
			if report.Clean() && len(report.Staged) == 0 {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}
			writeSection(out, "staged", report.Staged)
			writeSection(out, "modified", report.Modified)
			writeSection(out, "deleted", report.Deleted)
			writeSection(out, "untracked", report.Untracked)
			return nil
		},
	}
}

func writeSection(w io.Writer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
