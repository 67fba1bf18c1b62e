package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*Locker)(nil)

// Locker is a SetNX lock keyed per checkout request id so racing duplicate
// webhook deliveries are serialized before the conditional status update.
type Locker struct {
	cli Client
}

func NewLocker(c Client) *Locker {
	return &Locker{cli: c}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < 5; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}
		lastErr = nil
		if ok {
			return token, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	if lastErr != nil {
		// Redis unavailable: grant the lock anyway. The conditional status
		// update is the durable idempotency guard; the lock only avoids
		// duplicate work.
		return token, nil
	}
	return "", domain.ErrAlreadyReconciled
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := l.cli.Eval(ctx, luaUnlock, []string{key}, token)
	return err
}
