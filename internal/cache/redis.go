// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the distributed Cache backend used in production.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given redis address and verifies the
// connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) GetUser(ctx context.Context, username string) (*UserProjection, bool, error) {
	data, err := r.client.Get(ctx, userKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p UserProjection
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt entry, drop it and treat as a miss.
		_ = r.client.Del(ctx, userKey(username)).Err()
		return nil, false, nil
	}
	return &p, true, nil
}

func (r *Redis) SetUser(ctx context.Context, p *UserProjection) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, userKey(p.Username), data, TTL).Err()
}

func (r *Redis) Invalidate(ctx context.Context, username string) error {
	return r.client.Del(ctx, userKey(username)).Err()
}
