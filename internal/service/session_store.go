package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"smarthealth-frontend/internal/domain"
)

// SessionStore guarda las sesiones autenticadas indexadas por jti y permite revocarlas.
type SessionStore interface {
	Save(ctx context.Context, jti string, session domain.AuthSession, ttl time.Duration) error
	Get(ctx context.Context, jti string) (domain.AuthSession, bool, error)
	Delete(ctx context.Context, jti string) error
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
}

type memorySessionEntry struct {
	session   domain.AuthSession
	expiresAt time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]memorySessionEntry),
	}
}

func (s *memorySessionStore) Save(_ context.Context, jti string, session domain.AuthSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = memorySessionEntry{session: session, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, jti string) (domain.AuthSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jti]
	if !ok {
		return domain.AuthSession{}, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, jti)
		return domain.AuthSession{}, false, nil
	}
	return entry.session, true, nil
}

func (s *memorySessionStore) Delete(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client: client,
		prefix: "auth:session:",
	}
}

func (s *redisSessionStore) Save(ctx context.Context, jti string, session domain.AuthSession, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, jti string) (domain.AuthSession, bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return domain.AuthSession{}, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := s.client.Get(ctx, s.prefix+jti).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuthSession{}, false, nil
		}
		return domain.AuthSession{}, false, err
	}
	var session domain.AuthSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.AuthSession{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, true, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}
