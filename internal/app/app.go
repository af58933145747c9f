// Package app assembles the application: configuration, database,
// Genkit, the knowledge store, tools, and the assistant.
package app

import (
	"errors"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lectern-app/lectern/internal/assistant"
	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/ingest"
	"github.com/lectern-app/lectern/internal/session"
	"github.com/lectern-app/lectern/internal/store"
	"github.com/lectern-app/lectern/internal/tools"
)

// App holds all initialized application components.
// Create with Setup; release resources with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Store     *store.Store
	Sessions  *session.Store
	Registry  *tools.Registry
	Assistant *assistant.Assistant
	Loader    *ingest.Loader

	// Cleanup functions, run in reverse order by Close.
	cleanups []func() error
}

// Close releases all resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
