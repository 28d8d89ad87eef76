// Package cmd defines the inat-harvester command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes returned by Execute.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// errInterrupted marks a run stopped by SIGINT or SIGTERM.
var errInterrupted = errors.New("download interrupted by user")

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inat-harvester",
		Short: "Download recent iNaturalist observations and photos for a list of species.",
		Long: `inat-harvester resolves species (and an optional place) against the
iNaturalist API, downloads every matching observation from the last N days
together with its photos, and exports the result as a CSV file or as an
interactive HTML review page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is config.yaml in ., /etc/inat-harvester/ or $HOME/.inat-harvester)")

	cmd.AddCommand(newFetchCmd())
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, newRootCmd(), os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	switch code {
	case ExitInterrupted:
		_, _ = fmt.Fprintln(stderr, "\nDownload interrupted by user.")
	case ExitError:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errInterrupted), errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitError
	}
}
