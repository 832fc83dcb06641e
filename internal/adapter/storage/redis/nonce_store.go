package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore using Redis SET NX. Nonces are
// scoped per calling service so two services may legitimately reuse the
// same nonce value.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client *goredis.Client) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: "ledger:nonce:",
	}
}

// CheckAndSet atomically claims a nonce for a service. Returns true when the
// nonce is new, false when it was already used within the TTL window.
func (s *NonceStore) CheckAndSet(ctx context.Context, service string, nonce string, ttl time.Duration) (bool, error) {
	key := s.prefix + service + ":" + nonce
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, nonce was already used
			return false, nil
		}
		return false, fmt.Errorf("redis nonce check: %w", err)
	}
	return result == "OK", nil
}
