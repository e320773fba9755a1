// Package bootstrap assembles stores and services from configuration.
// It is shared by the HTTP server and the recordctl CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"studentrecords/internal/config"
	"studentrecords/internal/core/tx"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/domain/mirror"
	"studentrecords/internal/domain/record"
	"studentrecords/internal/infrastructure/storage/dynamo"
	"studentrecords/internal/infrastructure/storage/mongo"
	"studentrecords/internal/infrastructure/storage/postgres"
	"studentrecords/internal/infrastructure/storage/postgres/auth_repo"
	"studentrecords/internal/infrastructure/storage/postgres/record_repo"
	"studentrecords/internal/infrastructure/storage/sqlite"
	"studentrecords/pkg/logger"
)

// Pinger reports whether the Record Store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the wired services.
type App struct {
	Records *record.Service
	Auth    *auth.Service
	Bridge  *mirror.Bridge
	Store   Pinger

	closers []func(context.Context) error
}

// Close releases every connection opened by New, in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type stores struct {
	txm     tx.Manager
	records record.Repository
	users   auth.UserRepository
	tokens  auth.TokenRepository
	ping    Pinger
}

// New opens the configured stores and builds the services.
// On error, anything already opened is closed.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close(context.Background())
		}
	}()

	st, err := app.openRecordStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mirrorStore, err := app.openMirror(ctx, cfg.Mirror)
	if err != nil {
		return nil, err
	}

	app.Store = st.ping
	app.Bridge = mirror.NewBridge(mirrorStore)
	app.Records = record.NewService(record.ServiceConfig{
		Repo:      st.records,
		TxManager: st.txm,
		Mirror:    app.Bridge,
	})

	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtCfg.AccessTokenTTL = cfg.Auth.AccessTokenTTL

	authCfg := auth.DefaultServiceConfig()
	authCfg.RefreshTokenExpiry = cfg.Auth.RefreshTokenTTL
	authCfg.MaxLoginAttempts = cfg.Auth.MaxLoginAttempts
	authCfg.LockDuration = cfg.Auth.LockDuration

	app.Auth = auth.NewService(st.users, st.tokens, st.txm, auth.NewJWTService(jwtCfg), authCfg)
	ok = true
	return app, nil
}

func (a *App) openRecordStore(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.RecordStore {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return stores{}, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })

		if err := pool.EnsureSchema(ctx); err != nil {
			return stores{}, err
		}
		txm := postgres.NewTxManager(pool)
		logger.Info(ctx, "record store ready", "backend", config.StorePostgres)
		return stores{
			txm:     txm,
			records: record_repo.NewRecordRepo(txm),
			users:   auth_repo.NewUserRepo(txm),
			tokens:  auth_repo.NewTokenRepo(txm),
			ping:    pool,
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		txm := sqlite.NewTxManager(db)
		logger.Info(ctx, "record store ready", "backend", config.StoreSQLite, "path", cfg.SQLitePath)
		return stores{
			txm:     txm,
			records: sqlite.NewRecordRepo(txm),
			users:   sqlite.NewUserRepo(txm),
			tokens:  sqlite.NewTokenRepo(txm),
			ping:    db,
		}, nil
	}
	return stores{}, fmt.Errorf("unknown record store %q", cfg.RecordStore)
}

func (a *App) openMirror(ctx context.Context, cfg config.MirrorConfig) (mirror.Store, error) {
	switch cfg.Backend {
	case config.MirrorMongo:
		store, disconnect, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, disconnect)
		logger.Info(ctx, "mirror store ready", "backend", cfg.Backend, "collection", cfg.MongoCollection)
		return store, nil

	case config.MirrorDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{Region: cfg.AWSRegion, Endpoint: cfg.DynamoEndpoint})
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "mirror store ready", "backend", cfg.Backend, "table", cfg.DynamoTable)
		return dynamo.NewMirrorStore(client, cfg.DynamoTable), nil

	case config.MirrorMemory:
		logger.Warn(ctx, "mirror documents are kept in process memory only")
		return mirror.NewMemoryStore(), nil

	case config.MirrorNone:
		logger.Warn(ctx, "mirroring disabled, record changes will not reach a mirror store", "backend", config.MirrorNone)
		return mirror.NopStore{}, nil
	}
	return nil, fmt.Errorf("unknown mirror backend %q", cfg.Backend)
}
