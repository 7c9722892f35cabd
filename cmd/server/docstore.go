package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"azadi/internal/docstore"
	"azadi/internal/platform/config"
	"azadi/internal/platform/postgres"
	"azadi/internal/platform/redis"
	"azadi/pkg/platform/circuit"
)

// openDocstore builds the configured driver and returns a func releasing its
// connections.
func openDocstore(ctx context.Context, cfg config.Config, log *slog.Logger) (docstore.Client, func(), error) {
	noop := func() {}
	switch cfg.Docstore.Driver {
	case docstore.DriverHTTP:
		client, err := docstore.NewHTTPClient(docstore.HTTPConfig{
			BaseURL:   cfg.Docstore.URL,
			AuthToken: cfg.Docstore.Auth,
			Timeout:   cfg.Docstore.Timeout,
		},
			docstore.WithHTTPClient(&http.Client{Timeout: cfg.Docstore.Timeout}),
			docstore.WithBreaker(circuit.New("docstore")),
			docstore.WithLogger(log),
		)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case docstore.DriverRedis:
		rdb, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return docstore.NewRedisClient(rdb.Client), func() {
			if err := rdb.Close(); err != nil {
				log.Warn("closing redis", "error", err)
			}
		}, nil

	case docstore.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		client := docstore.NewPostgresClient(db)
		if err := client.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("prepare document table: %w", err)
		}
		return client, func() {
			if err := db.Close(); err != nil {
				log.Warn("closing postgres", "error", err)
			}
		}, nil

	case docstore.DriverMemory:
		log.Warn("using the in-memory document store, data is lost on restart")
		return docstore.NewMemoryClient(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown document store driver %q", cfg.Docstore.Driver)
	}
}
