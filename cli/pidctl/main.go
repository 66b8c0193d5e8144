// Package main is the pidctl command itself.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pidcli "go.viam.com/pid/cli"
	"go.viam.com/pid/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := pidcli.NewApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		logging.NewLogger("pidctl").Fatal(err)
	}
}
