package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// OTPStore holds one-time passwords in Redis with a TTL. When Redis is
// unreachable it falls back to an in-process map so verification keeps
// working in demo and degraded modes. It implements port.OTPStore.
type OTPStore struct {
	client *redis.Client

	mu    sync.Mutex
	local map[string]localOTP
}

type localOTP struct {
	code    string
	expires time.Time
}

// NewOTPStore creates the store. A nil client means local-only mode.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{
		client: client,
		local:  make(map[string]localOTP),
	}
}

// Put stores the code under the conversation id for the given TTL.
func (s *OTPStore) Put(ctx context.Context, conversationID, code string, ttl time.Duration) error {
	if s.client != nil {
		if err := s.client.Set(ctx, otpKeyPrefix+conversationID, code, ttl).Err(); err == nil {
			return nil
		}
	}
	s.mu.Lock()
	s.local[conversationID] = localOTP{code: code, expires: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Get returns the stored code, or empty when none is live.
func (s *OTPStore) Get(ctx context.Context, conversationID string) (string, error) {
	if s.client != nil {
		code, err := s.client.Get(ctx, otpKeyPrefix+conversationID).Result()
		if err == nil {
			return code, nil
		}
		if err == redis.Nil {
			return "", nil
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[conversationID]
	if !ok || time.Now().After(entry.expires) {
		delete(s.local, conversationID)
		return "", nil
	}
	return entry.code, nil
}

// Invalidate removes the code after a successful verification.
func (s *OTPStore) Invalidate(ctx context.Context, conversationID string) error {
	if s.client != nil {
		_ = s.client.Del(ctx, otpKeyPrefix+conversationID).Err()
	}
	s.mu.Lock()
	delete(s.local, conversationID)
	s.mu.Unlock()
	return nil
}
