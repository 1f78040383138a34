// Package app wires the stores, provider clients and build hook service from
// a loaded configuration.
package app

import (
	"fmt"
	"log/slog"

	"build-hooks/internal/buildhook"
	"build-hooks/internal/db/store"
	ws "build-hooks/internal/websocket"
	"build-hooks/pkg/circleci"
	"build-hooks/pkg/config"
	"build-hooks/pkg/hooks"
	"build-hooks/pkg/secrets"
)

// App holds the long lived components
type App struct {
	Config  *config.Config
	Store   *store.Store
	Secrets *secrets.FileStore
	Hub     *ws.Hub
	Service *buildhook.Service
}

// New opens the database and builds the service. hub may be nil when no
// live updates are served.
func New(cfg *config.Config, hub *ws.Hub) (*App, error) {
	slog.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sec := secrets.NewFileStore(cfg.Secrets.Path)
	client := hooks.NewClient(cfg.HTTP.Timeout, cfg.HTTP.RateLimit, cfg.HTTP.Retry.Config())

	deps := buildhook.Deps{
		Settings:       st,
		Secrets:        sec,
		Client:         client,
		Resolver:       hooks.NewResolver(cfg.CircleCI.BaseURL),
		Poller:         circleci.NewPoller(client, cfg.CircleCI.BaseURL, cfg.CircleCI.AppURL),
		History:        st,
		Channels:       st,
		AvailableRoles: cfg.Roles,
	}
	if hub != nil {
		deps.Hub = hub
	}

	return &App{
		Config:  cfg,
		Store:   st,
		Secrets: sec,
		Hub:     hub,
		Service: buildhook.NewService(deps),
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.Store.Close()
}
