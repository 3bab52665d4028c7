package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/logging"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/settings"
	"github.com/nikbrunner/linkhub/internal/storage"
)

// env is everything a command needs to reach the link collection.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
	repo   *repository.Repository
}

func openEnv(overrides *config.Overrides) (*env, error) {
	cfg, err := config.Load(*overrides)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "backend", cfg.Backend, "dir", cfg.DataDir)

	repo := repository.New(repository.Params{
		Store:  store,
		Grace:  cfg.Feed.Grace,
		Logger: logger,
	})
	return &env{cfg: cfg, logger: logger, store: store, repo: repo}, nil
}

func (e *env) settings() (*settings.Provider, error) {
	return settings.Open(settings.DefaultPath(e.cfg.DataDir))
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", "err", err)
	}
}
