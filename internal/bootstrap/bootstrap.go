// Package bootstrap builds the quotesync object graph from configuration.
// The service and the CLI share it so both see the same store, remote
// source and sync settings.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotesync/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// Options selects how much of the graph is built.
type Options struct {
	// Scheduled arms a Scheduler when sync is enabled. The CLI leaves it
	// off and runs cycles one at a time.
	Scheduled bool
}

// App is the wired graph. Close releases what it opened.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB      *sqlite.Store
	Session *memory.Store
	Store   *app.Store
	Posts   *acl.PostsClient

	Reconciler *app.Reconciler

	// Scheduler is nil unless Options.Scheduled and sync.enabled are set.
	Scheduler *app.Scheduler

	Service *app.QuoteService
	Health  *ports.DefaultHealthRegistry

	Loaded app.LoadResult
}

// New opens storage, loads the collection and wires the remote source.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	db, err := sqlite.Open(ctx, cfg.Storage.Path, sqlite.Options{BusyTimeout: cfg.Storage.BusyTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Session: memory.New(),
		Health:  ports.NewHealthRegistry(),
	}

	if err := a.wire(ctx, opts); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return a, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	cfg := a.Config

	a.Store = app.NewStore(app.StoreConfig{
		Durable: a.DB,
		Session: a.Session,
		Seed:    cfg.Storage.Seed,
		Logger:  a.Logger,
	})

	loaded, err := a.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading quotes: %w", err)
	}

	a.Loaded = loaded

	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Posts.BaseURL,
		ServiceName: cfg.Services.Posts.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      a.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating posts client: %w", err)
	}

	a.Posts = acl.NewPostsClient(acl.PostsClientConfig{
		Client:   client,
		Category: cfg.Sync.Category,
		Logger:   a.Logger,
	})

	metrics, err := telemetry.NewSyncMetrics()
	if err != nil {
		return fmt.Errorf("creating sync metrics: %w", err)
	}

	a.Reconciler = app.NewReconciler(app.ReconcilerConfig{
		Store:     a.Store,
		Source:    a.Posts,
		BatchSize: cfg.Sync.BatchSize,
		Metrics:   metrics,
	})

	var runner app.SyncRunner = app.ReconcilerRunner{Reconciler: a.Reconciler}

	if opts.Scheduled && cfg.Sync.Enabled {
		a.Scheduler = app.NewScheduler(app.SchedulerConfig{
			Reconciler:   a.Reconciler,
			Interval:     cfg.Sync.Interval,
			CycleTimeout: cfg.Sync.CycleTimeout,
			RunOnStart:   cfg.Sync.RunOnStart,
			Logger:       a.Logger,
		})
		runner = a.Scheduler
	}

	var publisher ports.QuotePublisher
	if cfg.Sync.PublishOnAdd {
		publisher = a.Posts
	}

	policy, err := app.ParseImportPolicy(cfg.Import.DuplicatePolicy)
	if err != nil {
		return fmt.Errorf("import policy: %w", err)
	}

	a.Service = app.NewQuoteService(app.QuoteServiceConfig{
		Store:        a.Store,
		Sync:         runner,
		Publisher:    publisher,
		ImportPolicy: policy,
		Logger:       a.Logger,
	})

	if err := a.Health.Register(a.DB); err != nil {
		return fmt.Errorf("registering storage health check: %w", err)
	}

	if err := a.Health.RegisterOptional(a.Posts); err != nil {
		return fmt.Errorf("registering posts health check: %w", err)
	}

	return nil
}

// Close stops the scheduler, forgets session state and closes storage.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	a.Session.Clear()

	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}

	return nil
}
