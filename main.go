package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kubev2v/relcore/cmd"
	"github.com/kubev2v/relcore/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfigurationWithOptionsAndDefaults()
	root := cmd.NewRootCommand(cfg)

	err := root.ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}
