package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/odvcencio/knyt/pkg/logging"
	"github.com/odvcencio/knyt/pkg/repo"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	verbose  bool
	logLevel string
	logJSON  bool
}

var (
	opts   globalOptions
	logger = logging.Nop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts = globalOptions{}
	root := &cobra.Command{
		Use:           "knyt",
		Short:         "A tiny content-addressed version control system",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			printAvailableCommands(cmd.ErrOrStderr(), cmd)
			return fmt.Errorf("unknown command %q", args[0])
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newCommitTreeCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newUnstageCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newCurrentBranchCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newVerifyCmd())
	return root
}

func newLogger(w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = slog.LevelDebug
	}
	if opts.logJSON {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}

func printAvailableCommands(w io.Writer, root *cobra.Command) {
	var names []string
	width := 0
	byName := make(map[string]*cobra.Command)
	for _, c := range root.Commands() {
		if !c.IsAvailableCommand() {
			continue
		}
		names = append(names, c.Name())
		byName[c.Name()] = c
		width = max(width, len(c.Name()))
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Available commands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %-*s  %s\n", width, n, byName[n].Short)
	}
}

// openRepo opens the repository containing the working directory and
// attaches the command logger.
func openRepo() (*repo.Repo, error) {
	r, err := repo.Open(".")
	if err != nil {
		return nil, err
	}
	r.Logger = logger
	return r, nil
}

func currentBranchLabel(r *repo.Repo) string {
	name, attached, err := r.CurrentBranch()
	if err != nil || !attached {
		return "HEAD"
	}
	return name
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "knyt 1.0.0")
		},
	}
}

