// Package main is the entry point for the recordctl maintenance tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studentrecords/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
