package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every object reachable from refs is present and intact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			report, err := r.Verify()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			roots := make([]string, 0, len(report.Roots))
			for name := range report.Roots {
				roots = append(roots, name)
			}
			sort.Strings(roots)
			for _, name := range roots {
				fmt.Fprintf(out, "root %s %s\n", name, report.Roots[name].Short())
			}
			for _, h := range report.Missing {
				fmt.Fprintf(out, "missing %s\n", h)
			}
			for _, h := range report.Corrupt {
				fmt.Fprintf(out, "corrupt %s\n", h)
			}
			for _, h := range report.Dangling {
				fmt.Fprintf(out, "dangling %s\n", h)
			}
			fmt.Fprintf(out, "%d reachable objects\n", report.Reachable)

			if !report.OK() {
				return fmt.Errorf("verify failed: %d missing, %d corrupt", len(report.Missing), len(report.Corrupt))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
