package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/example/room-calendar/internal/persistence"
)

// Options configures the Redis connection.
type Options struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// Store keeps each collection as a JSON array under one Redis key.
type Store struct {
	client *redis.Client
	prefix string
}

// NewClient creates a Redis client from options.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
}

// New wraps an existing client.
func New(client *redis.Client, keyPrefix string) *Store {
	return &Store{client: client, prefix: keyPrefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Key returns the Redis key backing the named collection.
func (s *Store) Key(name string) string {
	return s.prefix + name
}

// Read loads the named collection. A missing key yields an empty collection.
func (s *Store) Read(ctx context.Context, name string) ([]persistence.Record, error) {
	data, err := s.client.Get(ctx, s.Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []persistence.Record{}, nil
	}
	if err != nil {
		return nil, persistence.ReadError(name, err)
	}

	var records []persistence.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, persistence.ReadError(name, fmt.Errorf("decode collection: %w", err))
	}
	if records == nil {
		records = []persistence.Record{}
	}
	return records, nil
}

// Write replaces the named collection with a single SET.
func (s *Store) Write(ctx context.Context, name string, records []persistence.Record) error {
	if records == nil {
		records = []persistence.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return persistence.WriteError(name, err)
	}
	if err := s.client.Set(ctx, s.Key(name), data, 0).Err(); err != nil {
		return persistence.WriteError(name, err)
	}
	return nil
}
