// Package storage opens the repositories for the configured driver.
package storage

import (
	"context"
	"fmt"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/fastest-finger-pot/internal/repositories/mongodb"
	"github.com/ArowuTest/fastest-finger-pot/internal/repositories/sqlstore"
	"github.com/ArowuTest/fastest-finger-pot/pkg/mongodb"
)

// Open returns the store selected by cfg.Driver. The caller must call Close.
func Open(ctx context.Context, cfg config.StorageConfig) (*repositories.Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return memory.NewStore(), nil

	case "mongo":
		client, err := mongodb.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &repositories.Store{
			Rounds:  mongorepo.NewRoundRepository(db),
			Events:  mongorepo.NewEventRepository(db),
			Payouts: mongorepo.NewPayoutRepository(db),
			Close:   client.Disconnect,
		}, nil

	case "postgres", "sqlite":
		db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.Driver), cfg.SQL.DSN)
		if err != nil {
			return nil, err
		}
		return &repositories.Store{
			Rounds:  sqlstore.NewRoundRepository(db),
			Events:  sqlstore.NewEventRepository(db),
			Payouts: sqlstore.NewPayoutRepository(db),
			Close:   func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
