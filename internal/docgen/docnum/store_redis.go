package docnum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisCounterKey = "hesabu:document_counters"

// RedisStore keeps the counter record as JSON under a single key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (Counters, error) {
	data, err := s.client.Get(ctx, redisCounterKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Counters{}, nil
		}
		return Counters{}, fmt.Errorf("docnum: load counters: %w", err)
	}
	var c Counters
	if err := json.Unmarshal(data, &c); err != nil {
		return Counters{}, fmt.Errorf("docnum: decode counters: %w", err)
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c Counters) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("docnum: encode counters: %w", err)
	}
	if err := s.client.Set(ctx, redisCounterKey, data, 0).Err(); err != nil {
		return fmt.Errorf("docnum: save counters: %w", err)
	}
	return nil
}
