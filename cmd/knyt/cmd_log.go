package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/knyt/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var (
		oneline bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show first-parent commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			entries, err := r.Log()
			if errors.Is(err, repo.ErrNoCommitsYet) {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			branch := currentBranchLabel(r)
			out := cmd.OutOrStdout()
			for i, e := range entries {
				decoration := ""
				if i == 0 {
					decoration = buildDecoration(branch)
				}
				if oneline {
					fmt.Fprintf(out, "%s%s %s\n", e.Hash.Short(), decoration, e.Message)
					continue
				}
				fmt.Fprintf(out, "commit %s%s\n", e.Hash, decoration)
				fmt.Fprintf(out, "tree %s\n", e.Tree)
				if e.Parent != "" {
					fmt.Fprintf(out, "parent %s\n", e.Parent)
				}
				fmt.Fprintf(out, "Author: %s <%s>\n", e.Author.Name, e.Author.Email)
				fmt.Fprintf(out, "Date:   %s\n", e.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", e.Message)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 for all)")
	return cmd
}

// buildDecoration returns " (HEAD -> main)" for an attached HEAD, or
// " (HEAD)" when detached.
func buildDecoration(branch string) string {
	if branch == "HEAD" {
		return " (HEAD)"
	}
	return " (HEAD -> " + branch + ")"
}

