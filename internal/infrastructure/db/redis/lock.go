package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL = 60 * time.Second
	lockPrefix     = "catalog:cascade:"
)

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CascadeLock is a per-key mutual exclusion lock backed by SET NX PX.
// Key format: catalog:cascade:<key>
type CascadeLock struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewCascadeLock creates a CascadeLock. The TTL bounds how long a crashed
// holder can block a hierarchy; if ttl <= 0, defaultLockTTL is used.
func NewCascadeLock(client *redis.Client, ttl time.Duration) *CascadeLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &CascadeLock{client: client, ttl: ttl, tokens: make(map[string]string)}
}

// Acquire reports false without error when another holder owns key.
func (l *CascadeLock) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cascade lock acquire: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()
	return true, nil
}

// Release is a no-op for keys this instance does not hold.
func (l *CascadeLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{lockPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("cascade lock release: %w", err)
	}
	return nil
}
