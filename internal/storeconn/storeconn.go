// Package storeconn opens the configured document store driver.
package storeconn

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/config"
	"github.com/noah-isme/campuspass-api/pkg/database"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/boltstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/memstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/mongostore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/pgstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/redisstore"
)

// Open connects to the driver named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (docstore.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	namespace := cfg.Store.ProjectID
	driverLogger := logger.Named("docstore").With(zap.String("driver", cfg.Store.Driver))

	switch cfg.Store.Driver {
	case config.DriverMemory, "":
		driverLogger.Warn("using in-memory document store; data is lost on restart")
		return memstore.New(driverLogger), nil
	case config.DriverRedis:
		store, err := redisstore.Dial(cfg.Redis, namespace, driverLogger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := pgstore.New(db, cfg.Database.DSN(), namespace, driverLogger)
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(schemaCtx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverBolt:
		store, err := boltstore.Open(cfg.Bolt.Path, namespace, driverLogger)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return store, nil
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, namespace, driverLogger)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
