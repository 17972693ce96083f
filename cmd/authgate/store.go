package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	auth "github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/config"
	"github.com/goliatone/go-authgate/repository"
	"github.com/goliatone/go-authgate/repository/postgres"
)

// backend is an identity store the CLI can also seed and probe.
type backend interface {
	auth.IdentityStore
	Create(ctx context.Context, username, email, passwordHash string) (*auth.Identity, error)
	Ping(ctx context.Context) error
}

// openBackend connects to the configured store and returns it with a close
// function. migrate applies the schema first.
func openBackend(ctx context.Context, cfg config.StoreConfig, migrate bool) (backend, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := repository.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		users := repository.NewUsers(db)
		if migrate {
			if err := users.CreateSchema(ctx); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return users, func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return postgres.NewUsers(pool), pool.Close, nil
	}

	return nil, nil, oops.In("cli").Code("UNKNOWN_DRIVER").Wrap(fmt.Errorf("unknown store driver %q", cfg.Driver))
}
