package main

import (
	"context"
	"os"

	"pathfinder-backend/infrastructure/config"
	"pathfinder-backend/infrastructure/di"
)

func loadContainer(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigFile = "" // no hot reload for one-shot commands
	return di.InitializeContainer(ctx, cfg)
}

func main() {
	if err := newRootCmd(loadContainer).Execute(); err != nil {
		os.Exit(1)
	}
}
