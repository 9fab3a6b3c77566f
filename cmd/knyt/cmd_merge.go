package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var cont bool

	cmd := &cobra.Command{
		Use:   "merge [branch] [--continue]",
		Short: "Merge a branch into the current branch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cont {
				if len(args) > 0 {
					return fmt.Errorf("--continue takes no branch argument")
				}
				h, err := r.MergeContinue()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "merge completed: %s\n", h.Short())
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("merge requires a branch name or --continue")
			}
			result, err := r.MergeBranch(args[0])
			if err != nil {
				return err
			}
			if result.HasConflicts() {
				fmt.Fprintf(out, "merge of %s stopped with %d conflict(s):\n", args[0], len(result.Conflicts))
				for _, p := range result.Conflicts {
					fmt.Fprintf(out, "  CONFLICT %s\n", p)
				}
				fmt.Fprintln(out, "resolve the markers, add the files, then run 'knyt merge --continue'")
				return nil
			}
			fmt.Fprintf(out, "merged %s into %s: %s\n", args[0], currentBranchLabel(r), result.Commit.Short())
			return nil
		},
	}
	cmd.Flags().BoolVar(&cont, "continue", false, "finish a merge after resolving conflicts")
	return cmd
}
