// Package lock serialises evaluations of the same bot.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
)

// Memory holds locks inside the current process.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ interfaces.EvaluationLocker = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{held: map[string]struct{}{}}
}

func (m *Memory) TryLock(ctx context.Context, key string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return nil, false, nil
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, true, nil
}

// Redis holds locks in Redis so several processes share them. A lock expires after ttl
// if its holder dies without releasing it.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ interfaces.EvaluationLocker = (*Redis)(nil)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: "trading-bots:lock:"}
}

func (r *Redis) TryLock(ctx context.Context, key string) (func(), bool, error) {
	k := r.prefix + key
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be cancelled
			if err := release.Run(context.Background(), r.client, []string{k}, token).Err(); err != nil {
				logger.Warn(ctx, "Failed to release evaluation lock", "key", k, "error", err)
			}
		})
	}, true, nil
}

// Nop never blocks.
type Nop struct{}

func (Nop) TryLock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
