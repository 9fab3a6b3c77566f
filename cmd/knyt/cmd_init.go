package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/knyt/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty knyt repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.Init(abs)
			if err != nil {
				return err
			}
			r.Logger = logger
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty knyt repository in %s\n", r.KnytDir+string(filepath.Separator))
			return nil
		},
	}
}
