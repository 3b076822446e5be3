// Package cli contains the branchctl command line interface, executing
// Branch commands against the configured Event Store backend.
package cli

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get-eventually/eventcore/aggregate"
	"github.com/get-eventually/eventcore/aggregate/snapshot"
	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/config"
	"github.com/get-eventually/eventcore/event"
	eventcorefirestore "github.com/get-eventually/eventcore/firestore"
	"github.com/get-eventually/eventcore/internal/branch"
	"github.com/get-eventually/eventcore/internal/user"
	"github.com/get-eventually/eventcore/logger"
	"github.com/get-eventually/eventcore/opentelemetry"
	"github.com/get-eventually/eventcore/postgres"
	"github.com/get-eventually/eventcore/sqlite"
)

// snapshotEvery is the number of versions between two Aggregate snapshots.
const snapshotEvery = 10

// App holds the components used by the CLI commands.
type App struct {
	Config     config.Config
	Logger     logger.Logger
	Repository aggregate.Repository
	Executor   *command.Executor

	closers []func() error
}

// NewRegistry returns the event.Registry with all the sample domain events.
func NewRegistry() (*event.Registry, error) {
	registry := event.NewRegistry()

	if err := branch.Register(registry); err != nil {
		return nil, fmt.Errorf("cli.NewRegistry: %w", err)
	}

	if err := user.Register(registry); err != nil {
		return nil, fmt.Errorf("cli.NewRegistry: %w", err)
	}

	return registry, nil
}

// NewApp wires the Repository and Executor on top of the provided Event Store,
// adding OpenTelemetry instrumentation and in-process snapshots.
func NewApp(cfg config.Config, l logger.Logger, store event.Store, catalog event.Catalog) (*App, error) {
	instrumentedStore, err := opentelemetry.NewInstrumentedEventStore(store)
	if err != nil {
		return nil, fmt.Errorf("cli.NewApp: failed to instrument event store, %w", err)
	}

	repository, err := opentelemetry.NewInstrumentedRepository(
		aggregate.NewEventSourcedRepository(
			instrumentedStore,
			aggregate.WithLogger(l),
			aggregate.WithSnapshots(
				snapshot.NewInMemoryStore[aggregate.Aggregate](),
				snapshot.EveryNVersionsPolicy(snapshotEvery),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cli.NewApp: failed to instrument repository, %w", err)
	}

	return &App{
		Config:     cfg,
		Logger:     l,
		Repository: repository,
		Executor:   command.NewExecutor(repository, catalog, command.WithLogger(l)),
	}, nil
}

// Open builds the App for the backend selected in the Config.
//
// Call Close to release the backend resources.
func Open(ctx context.Context, cfg config.Config, l logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cli.Open: %w", err)
	}

	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	store, closer, err := openStore(ctx, cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("cli.Open: failed to open %s backend, %w", cfg.Backend, err)
	}

	app, err := NewApp(cfg, l, store, registry)
	if err != nil {
		return nil, errors.Join(err, closer())
	}

	app.closers = append(app.closers, closer)

	logger.Info(l, "Event Store backend opened", logger.With("backend", string(cfg.Backend)))

	return app, nil
}

func openStore(ctx context.Context, cfg config.Config, codec event.Codec) (event.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return event.NewInMemoryStore(), noop, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, codec)
		if err != nil {
			return nil, nil, err
		}

		return store, store.Close, nil

	case config.BackendPostgres:
		if err := postgres.RunMigrations(cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}

		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		return postgres.NewEventStore(pool, codec), func() error { pool.Close(); return nil }, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, err
		}

		return eventcorefirestore.NewEventStore(client, codec), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalid, cfg.Backend)
	}
}

// Close releases the resources held by the App backend.
func (app *App) Close() error {
	var errs []error

	for _, closer := range app.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}

	app.closers = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cli.App: failed to close, %w", err)
	}

	return nil
}
