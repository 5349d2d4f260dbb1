// SPDX-License-Identifier: MIT
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/geoanonymizer/spatial"
)

const redisKeyPrefix = "geoanon:pt:"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore persists mappings in Redis so multiple instances can share one
// consistency space. Entries are written without TTL: an expired mapping
// would silently break cross-run joins.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

func OpenRedisStore(cfg RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to redis store")

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Load(ctx context.Context, key string) (spatial.Point, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return spatial.Point{}, false, nil
	}
	if err != nil {
		return spatial.Point{}, false, fmt.Errorf("redis get: %w", err)
	}
	p, err := decodePoint(data)
	if err != nil {
		return spatial.Point{}, false, err
	}
	return p, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, p spatial.Point) error {
	data, err := encodePoint(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping reports whether the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
