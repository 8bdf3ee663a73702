// Package lock provides a best-effort distributed mutex on Redis, used to
// keep overlapping sweep runs from sending the same mail twice.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lock.
var ErrHeld = errors.New("lock held by another process")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker acquires named locks with SET NX PX.
type Locker struct {
	client redis.UniversalClient
}

// New constructs a Locker on client.
func New(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// Lock is a held lock.
type Lock struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Acquire takes key for ttl or returns ErrHeld. The lock expires on its own
// if the holder dies.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}

// Release gives the lock up if it is still ours.
func (k *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, k.client, []string{k.key}, k.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", k.key, err)
	}
	return nil
}
