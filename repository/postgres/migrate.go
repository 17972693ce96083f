package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"

	"github.com/goliatone/go-authgate/repository/postgres/migrations"
)

// Migrate applies the embedded migrations to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.In("postgres").Code("MIGRATE_DIALECT").Wrap(err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return oops.In("postgres").Code("MIGRATE_UP").Wrap(err)
	}

	return nil
}

// Connect opens a pool on dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.In("postgres").Code("POOL_CREATE").Wrap(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.In("postgres").Code("POOL_PING").Wrap(err)
	}

	return pool, nil
}
