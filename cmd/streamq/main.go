// Command streamq runs the Redis-Streams queue engine and offers a small
// producer tool for appending entries to its streams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	runCmd := newRunCommand()

	root := &cobra.Command{
		Use:           "streamq",
		Short:         "Redis-Streams background job engine",
		Long:          "streamq runs the mail dispatch, delay, timer and trigger queues on top of Redis Streams.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a sub-command starts the queues.
		RunE: runCmd.RunE,
	}
	root.AddCommand(runCmd, newEnqueueCommand())
	return root
}
