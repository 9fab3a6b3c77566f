package main

import (
	"fmt"

	"github.com/odvcencio/knyt/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute a file's blob digest, optionally storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := r.HashFile(args[0], write)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", true, "write the blob into the object store")
	return cmd
}

func newCatFileCmd() *cobra.Command {
	var pretty, showType bool

	cmd := &cobra.Command{
		Use:   "cat-file -p <digest>",
		Short: "Print an object from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pretty && !showType {
				return fmt.Errorf("one of -p or -t is required")
			}
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo()
			if err != nil {
				return err
			}
			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType {
				fmt.Fprintln(out, objType)
				return nil
			}
			switch objType {
			case object.TypeTree:
				tree, err := object.UnmarshalTree(data)
				if err != nil {
					return fmt.Errorf("cat-file %s: %w: %w", h, object.ErrCorruptObject, err)
				}
				for _, e := range tree.Entries {
					fmt.Fprintf(out, "%s %s %s\n", e.Mode, e.Hash, e.Name)
				}
			default:
				_, err := out.Write(data)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	return cmd
}

func newWriteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Write the index as a tree object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			entries, err := r.ReadIndex()
			if err != nil {
				return err
			}
			h, err := r.BuildTree(entries)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newCommitTreeCmd() *cobra.Command {
	var (
		message string
		parents []string
	)

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> -m <message> [-p <parent>]...",
		Short: "Create a commit from a tree and advance HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}
			var parentHashes []object.Hash
			for _, p := range parents {
				h, err := object.ParseHash(p)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				parentHashes = append(parentHashes, h)
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := r.CommitTree(tree, message, parentHashes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	return cmd
}
