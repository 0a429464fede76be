package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
)

// NewCounterStore selects the sequence counter backend from
// configuration. Both binaries must agree on the backend or they will
// hand out colliding numbers.
func NewCounterStore(cfg *Config, pool *pgxpool.Pool, rdb *redis.Client) (docnum.CounterStore, error) {
	switch cfg.CounterStore {
	case "postgres":
		return docnum.NewPostgresStore(pool), nil
	case "redis":
		return docnum.NewRedisStore(rdb), nil
	case "file":
		return docnum.NewFileStore(cfg.CounterFile), nil
	default:
		return nil, fmt.Errorf("unknown counter store %q", cfg.CounterStore)
	}
}
