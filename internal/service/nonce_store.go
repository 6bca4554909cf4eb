package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/reply-assistant/pkg/database"
)

// StateNonceStore records consumed OAuth state nonces in Redis so a state
// token is accepted at most once during its lifetime
type StateNonceStore struct {
	redis *database.Redis
}

// NewStateNonceStore creates a new nonce store
func NewStateNonceStore(redis *database.Redis) *StateNonceStore {
	return &StateNonceStore{redis: redis}
}

// Consume marks nonce used for ttl. It returns false when the nonce was already used.
func (s *StateNonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	key := fmt.Sprintf("oauth:state:nonce:%s", nonce)
	ok, err := s.redis.Client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume state nonce: %w", err)
	}
	return ok, nil
}
