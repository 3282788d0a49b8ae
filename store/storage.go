package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PreferenceStorer keeps the widget language chosen by each client.
type PreferenceStorer interface {
	Language(context.Context, string) (string, error)
	SetLanguage(context.Context, string, string) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	langs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{langs: make(map[string]string)}
}

func (m *MemoryStore) Language(_ context.Context, clientID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.langs[clientID], nil
}

func (m *MemoryStore) SetLanguage(_ context.Context, clientID, lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.langs[clientID] = lang
	return nil
}

const (
	keyPrefix     = "chatwidget:lang:"
	preferenceTTL = 365 * 24 * time.Hour
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client), nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Language returns "" when the client never chose one.
func (r *RedisStore) Language(ctx context.Context, clientID string) (string, error) {
	lang, err := r.client.Get(ctx, keyPrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return lang, nil
}

func (r *RedisStore) SetLanguage(ctx context.Context, clientID, lang string) error {
	return r.client.Set(ctx, keyPrefix+clientID, lang, preferenceTTL).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
