package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/shop-orders/internal/redisx"
)

// Store keeps at most one open session per user.
type Store interface {
	Get(ctx context.Context, userID string) (Session, bool, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context, userID string) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]Session{}}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.last = nil
	m.sessions[s.UserID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// redisKV is the part of the go-redis client the session store uses.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps sessions as JSON under checkout:session:{user_id}. Every
// write refreshes the TTL, so abandoned carts expire.
type RedisStore struct {
	rdb redisKV
	ttl time.Duration
}

func NewRedisStore(rdb redisKV, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = redisx.TTLSession
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return fmt.Sprintf(redisx.KeyCheckoutSession, userID)
}

func (r *RedisStore) Get(ctx context.Context, userID string) (Session, bool, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("redis get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session %s: %w", userID, err)
	}
	return s, true, nil
}

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(s.UserID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
