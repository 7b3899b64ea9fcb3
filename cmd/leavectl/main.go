package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := &cliApp{}
	err := newRootCmd(cli).ExecuteContext(ctx)
	if cli.logger != nil {
		if err != nil {
			cli.logger.Error("leavectl failed", zap.Error(err))
		}
		_ = cli.logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
