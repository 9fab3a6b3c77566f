package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage files or directories for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			ignore, err := r.LoadIgnoreList()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range args {
				staged, err := r.StageAdd(p, ignore)
				if err != nil {
					return err
				}
				for _, s := range staged {
					fmt.Fprintf(out, "added %s\n", s)
				}
			}
			return nil
		},
	}
}

func newUnstageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstage <path|.>",
		Short: "Remove a path from the index, or clear it with '.'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			removed, err := r.Unstage(args[0])
			if err != nil {
				return err
			}
			switch {
			case removed == 0:
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to unstage for %s\n", args[0])
			case args[0] == ".":
				fmt.Fprintf(cmd.OutOrStdout(), "unstaged all %d files\n", removed)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "unstaged %s\n", args[0])
			}
			return nil
		},
	}
}
