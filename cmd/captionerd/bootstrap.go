package main

import (
	"fmt"
	"log/slog"

	"captioner/internal/config"
	"captioner/internal/daemon"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/queue"
	"captioner/internal/workflow"
)

const logHubCapacity = 2048

// buildDaemon opens the job store and assembles the registry, render runner,
// workflow manager and daemon around it. Closing the daemon closes the store.
func buildDaemon(cfg *config.Config, logger *slog.Logger, hub *logging.StreamHub, opts ...workflow.RunnerOption) (*daemon.Daemon, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	registry := jobs.NewRegistry(store, logger)
	runner := workflow.NewRunner(cfg, logger, opts...)
	manager := workflow.NewManager(cfg, registry, runner, logger)

	d, err := daemon.New(cfg, store, registry, manager, logger, hub)
	if err != nil {
		store.Close()
		return nil, err
	}
	return d, nil
}
