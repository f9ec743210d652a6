package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/config"
	"github.com/aretw0/triage/pkg/adapters/csv"
	"github.com/aretw0/triage/pkg/adapters/file"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/adapters/redis"
	"github.com/aretw0/triage/pkg/adapters/sqlite"
	"github.com/aretw0/triage/pkg/observability"
	"github.com/aretw0/triage/pkg/persistence/middleware"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is everything a command needs: the loaded engine, the session manager over the
// configured store, and the metrics registry.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *triage.Engine
	Manager  *session.Manager
	Registry *prometheus.Registry

	closers []func() error
}

// Build loads the decision tree and opens the session store described by cfg.
// Malformed data fails here, before any session starts.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(app.Registry)

	var db *sqlite.DB
	if cfg.DB != "" {
		var err error
		if db, err = sqlite.Open(ctx, cfg.DB); err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
	}

	entry, err := cfg.EntryRef()
	if err != nil {
		app.Close()
		return nil, err
	}

	eng, err := triage.New(ctx, tableSource(cfg, db),
		triage.WithLogger(logger),
		triage.WithEntry(entry),
		triage.WithLifecycleHooks(observability.Merge(
			observability.LogHooks(logger),
			metrics.Hooks(),
		)),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Engine = eng

	store, opts, err := app.sessionStore(ctx, db)
	if err != nil {
		app.Close()
		return nil, err
	}
	if store, err = sealed(cfg, store); err != nil {
		app.Close()
		return nil, err
	}
	app.Manager = session.NewManager(store, append(opts, session.WithLogger(logger))...)
	return app, nil
}

func tableSource(cfg *config.Config, db *sqlite.DB) ports.TableSource {
	if db != nil {
		return db.Source()
	}
	return csv.NewOSSource(cfg.Questions, cfg.Prompts)
}

func (a *App) sessionStore(ctx context.Context, db *sqlite.DB) (ports.StateStore, []session.Option, error) {
	switch a.Config.SessionStore {
	case config.StoreSQLite:
		if db == nil {
			return nil, nil, errors.New("sqlite session store requires a database")
		}
		return db.Store(), nil, nil

	case config.StoreRedis:
		store := redis.New(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB,
			redis.WithTTL(a.Config.SessionTTL),
		)
		a.closers = append(a.closers, store.Client().Close)
		if err := store.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect redis %s: %w", a.Config.RedisAddr, err)
		}
		locker := redis.NewLocker(store.Client(), "triage:")
		return store, []session.Option{session.WithLocker(locker)}, nil

	case config.StoreFile:
		return file.New(a.Config.SessionDir), nil, nil

	default:
		return memory.NewStore(), nil, nil
	}
}

// sealed wraps store with encryption when a session key is configured.
func sealed(cfg *config.Config, store ports.StateStore) (ports.StateStore, error) {
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil || active == nil {
		return store, err
	}
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

// Sessions returns the rich-client facade used by the HTTP and MCP servers.
func (a *App) Sessions() *runner.Sessions {
	return a.Engine.Sessions(a.Manager)
}

// Close releases database and network connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
