package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/watchlist/internal/repositories"
	"github.com/desertthunder/watchlist/internal/server"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

const memoryDatabase = ":memory:"

// Serve runs the development store until interrupted.
//
// A lock file beside the database keeps a second server from sharing it.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if path := r.config.Database.Path; path != memoryDatabase {
		lock := flock.New(path + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: another store is already serving %s", shared.ErrServiceUnavailable, path)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("failed to release store lock", "error", err)
			}
		}()
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if seed := cmd.String("seed"); seed != "" {
		if err := r.seedCatalog(db, seed); err != nil {
			return err
		}
	}

	handler, err := r.storeHandler(db, cmd.Bool("fail-writes"))
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, listener, handler, r.logger)
}

// storeHandler wires the repositories behind the store routes and middleware.
func (r *Runner) storeHandler(db *sql.DB, failWrites bool) (*server.BasicRouter, error) {
	catalog := repositories.NewCatalogRepository(db)
	count, err := catalog.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if count == 0 {
		r.logger.Warn("catalog is empty; pass --seed to load titles")
	}
	if failWrites {
		r.logger.Warn("write fault injection enabled; POST and PATCH will return 503")
	}

	logger := shared.WithLogger(r.logger, "component", "store")
	store := server.NewStoreHandler(catalog, repositories.NewListRepository(db), server.StoreOpts{
		CatalogPath: r.config.Catalog.Path,
		FailWrites:  failWrites,
		Logger:      logger,
	})

	router := server.NewBasicRouter()
	router.Use(server.RequestID, server.RequestLogger(logger), server.Recovery(logger))
	router.Handler(store)
	return router, nil
}
