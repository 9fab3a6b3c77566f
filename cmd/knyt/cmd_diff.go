package main

import (
	"fmt"

	"github.com/odvcencio/knyt/pkg/diff"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <branch-a> <branch-b>",
		Short: "Show line differences between two branch tips",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			changes, err := r.DiffBranches(args[0], args[1])
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no differences")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff.Format(changes))
			return nil
		},
	}
}
