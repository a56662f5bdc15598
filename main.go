package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/live-labs/confbak/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(cmd.ExecuteContext(ctx))
}
