package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch [name]",
		Short: "List branches or create a new one at the current commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := r.CreateBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created branch %s\n", args[0])
				return nil
			}

			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			current, attached, _ := r.CurrentBranch()
			for _, b := range branches {
				if attached && b == current {
					fmt.Fprintf(cmd.OutOrStdout(), "* %s\n", b)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", b)
				}
			}
			return nil
		},
	}
}

func newCurrentBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current-branch",
		Short: "Print the branch HEAD points at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			name, attached, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if !attached {
				fmt.Fprintln(cmd.OutOrStdout(), "HEAD detached")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
