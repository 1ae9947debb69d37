package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the state document under a single Redis key. Useful when
// the engine runs on ephemeral hosts where the local filesystem does not
// survive restarts.
type RedisStore struct {
	rdb            *redis.Client
	key            string
	initialBalance float64
}

func NewRedisStore(rdb *redis.Client, key string, initialBalance float64) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, initialBalance: initialBalance}
}

func (s *RedisStore) Load(ctx context.Context) (*Ledger, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(s.initialBalance), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state from redis: %w", err)
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.key, err)
	}
	return migrate(doc, s.initialBalance), nil
}

func (s *RedisStore) Save(ctx context.Context, l *Ledger) error {
	data, err := json.Marshal(encode(l))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save state to redis: %w", err)
	}
	return nil
}
