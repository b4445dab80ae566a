// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces artifact keys.
const DefaultRedisPrefix = "wayfarer:artifact:"

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Addr     string        `json:"addr" koanf:"addr"`
	Password string        `json:"-" koanf:"password"`
	DB       int           `json:"db" koanf:"db"`
	Prefix   string        `json:"prefix" koanf:"prefix"`
	TTL      time.Duration `json:"ttl" koanf:"ttl"`
}

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Close() error
}

// RedisStore keeps the latest generation of each artifact under
// {prefix}{name} and its generation counter under {prefix}{name}:gen.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
//
//nolint:gocritic // hugeParam: opts is read once at startup
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, name string, blob []byte) (BlobInfo, error) {
	gen, err := s.client.Incr(ctx, s.prefix+name+":gen").Result()
	if err != nil {
		return BlobInfo{}, fmt.Errorf("next generation for %s: %w", name, err)
	}
	data, info, err := seal(name, gen, blob)
	if err != nil {
		return BlobInfo{}, err
	}
	if err := s.client.Set(ctx, s.prefix+name, data, s.ttl).Err(); err != nil {
		return BlobInfo{}, fmt.Errorf("store %s: %w", name, err)
	}
	return info, nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, BlobInfo, error) {
	data, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, BlobInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("load %s: %w", name, err)
	}
	return unseal(data)
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
