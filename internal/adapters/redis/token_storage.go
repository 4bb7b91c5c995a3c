package redis

// Package redis provides Redis-backed durable storage for session tokens.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

const defaultPrefix = "afrigene:session:"

// TokenStorage keeps each session's tokens in one Redis hash so that a
// multi-key write lands together. The hash expires after TTL of inactivity.
type TokenStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Options configures TokenStorage.
type Options struct {
	// Prefix namespaces the hash keys; defaults to "afrigene:session:".
	Prefix string
	// TTL is refreshed on every write. Zero disables expiry.
	TTL time.Duration
}

var _ ports.StorageProvider = (*TokenStorage)(nil)

// NewTokenStorage creates a provider backed by client.
func NewTokenStorage(client redis.UniversalClient, opts Options) *TokenStorage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &TokenStorage{client: client, prefix: prefix, ttl: opts.TTL}
}

// For returns the storage scoped to one session id.
//
//nolint:ireturn // callers only need the port.
func (s *TokenStorage) For(sessionID string) ports.KeyValueStorage {
	return &sessionHash{parent: s, id: sessionID, key: s.prefix + sessionID}
}

type sessionHash struct {
	parent *TokenStorage
	id     string
	key    string
}

func (h *sessionHash) Get(ctx context.Context, field string) (string, bool, error) {
	val, err := h.parent.client.HGet(ctx, h.key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis hget %s: %w", field, err)
	}
	return val, true, nil
}

func (h *sessionHash) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	if h.id == "" {
		return errors.New("session id cannot be empty")
	}

	fields := make([]any, 0, len(values)*2)
	for k, v := range values {
		fields = append(fields, k, v)
	}

	_, err := h.parent.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, h.key, fields...)
		if h.parent.ttl > 0 {
			pipe.Expire(ctx, h.key, h.parent.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (h *sessionHash) Delete(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := h.parent.client.HDel(ctx, h.key, fields...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}
