package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/internal/cli"
	"github.com/matzehuels/setlistgen/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	verbose, err := run(ctx)
	if err == nil {
		return
	}
	if stderrors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "Error:", err)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
	}
	os.Exit(1)
}

func run(ctx context.Context) (verbose bool, err error) {
	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if preRun != nil {
			return preRun(cmd, args)
		}
		return nil
	}

	err = root.ExecuteContext(ctx)
	return verbose, err
}
