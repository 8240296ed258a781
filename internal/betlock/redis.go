package betlock

import (
	"context"
	"fmt"
	"time"

	"wager-engine/internal/wager"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "wager:lock:bet:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lock shared by every engine replica. The ttl bounds how long a
// crashed holder can keep a bet locked.
type Redis struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
}

func NewRedis(client redis.UniversalClient, timeout, ttl time.Duration) *Redis {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{client: client, ttl: ttl, timeout: timeout, retry: 25 * time.Millisecond}
}

func (r *Redis) Acquire(ctx context.Context, betID string) (func(), error) {
	key := redisKeyPrefix + betID
	token := uuid.NewString()
	deadline := time.Now().Add(r.timeout)
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire bet lock: %w", err)
		}
		if ok {
			return r.releaser(key, token), nil
		}
		if time.Now().After(deadline) {
			return nil, wager.ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
}

func (r *Redis) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("lock_key", key).Msg("release bet lock failed")
		}
	}
}
