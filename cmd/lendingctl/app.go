package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/circulation"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/config"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/memstore"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/oteladapters"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/session"
)

const snapshotFileMode = 0o600

// app holds everything one CLI invocation works with: one engine and one session.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	engine  *circulation.Engine
	session *session.Coordinator

	// exactly one of memory and postgres is set
	memory   *memstore.Store
	postgres *postgresengine.Backend

	telemetry *telemetry
	closeDB   func()
}

func newApp(ctx context.Context, cfg config.Config, logOutput io.Writer) (*app, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	handler := slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level})
	tel, err := newTelemetry(cfg.Telemetry, logOutput)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: slog.New(handler), telemetry: tel, closeDB: func() {}}
	contextual := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	var (
		backend lending.Backend
		catalog lending.Catalog
	)

	switch cfg.Store {
	case config.StorePostgres:
		options := append([]postgresengine.Option{postgresengine.WithContextualLogger(contextual)}, tel.backendOptions()...)

		pg, closeDB, err := cfg.Database.OpenBackend(ctx, options...)
		if err != nil {
			a.close()
			return nil, err
		}

		a.postgres, a.closeDB = pg, closeDB
		backend, catalog = pg, pg.Catalog()

	default:
		store, err := memstore.NewStore(memstore.WithLockTimeout(cfg.LockTimeout), memstore.WithLogger(a.logger))
		if err != nil {
			a.close()
			return nil, err
		}

		if err = loadSnapshot(store, cfg.SnapshotFile); err != nil {
			a.close()
			return nil, err
		}

		a.memory = store
		backend, catalog = store, store.Catalog()
	}

	engineOptions := append([]circulation.Option{circulation.WithContextualLogger(contextual)}, tel.engineOptions()...)

	a.engine, err = circulation.NewEngine(catalog, engineOptions...)
	if err != nil {
		a.close()
		return nil, err
	}

	sessionOptions := append([]session.Option{session.WithContextualLogger(contextual)}, tel.sessionOptions()...)

	a.session, err = session.NewCoordinator(backend, sessionOptions...)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// commit commits the session and, for a file-backed memory store, persists the new state.
func (a *app) commit(ctx context.Context) error {
	if err := a.session.Commit(ctx); err != nil {
		return err
	}

	if a.memory == nil || a.cfg.SnapshotFile == "" {
		return nil
	}

	data, err := a.memory.ExportSnapshot()
	if err != nil {
		return err
	}

	return os.WriteFile(a.cfg.SnapshotFile, data, snapshotFileMode)
}

// close releases the database and flushes pending telemetry.
func (a *app) close() {
	a.closeDB()

	if err := a.telemetry.shutdown(context.Background()); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// loadSnapshot imports the snapshot file into store. A missing file leaves the store empty.
func loadSnapshot(store *memstore.Store, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	return store.ImportSnapshot(data)
}
