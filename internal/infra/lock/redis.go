package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our value, so an
// expired lock reacquired by another holder is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisProvider implements Provider on Redis SET NX, giving exclusive
// locks across instances. Locks expire after TTL so a crashed holder
// cannot wedge a certificate forever.
type RedisProvider struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	prefix     string
}

type redisToken struct {
	key   string
	value string
}

func (t *redisToken) Key() string { return t.key }

// NewRedisProvider creates a Redis-backed lock provider.
func NewRedisProvider(client redis.UniversalClient, ttl time.Duration) *RedisProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisProvider{
		client:     client,
		ttl:        ttl,
		retryDelay: 50 * time.Millisecond,
		prefix:     "payments:lock:",
	}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (p *RedisProvider) Acquire(ctx context.Context, key string) (Token, error) {
	value := uuid.NewString()
	redisKey := p.prefix + key
	for {
		ok, err := p.client.SetNX(ctx, redisKey, value, p.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &redisToken{key: key, value: value}, nil
		}
		select {
		case <-time.After(p.retryDelay):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrNotAcquired
			}
			return nil, ctx.Err()
		}
	}
}

// Release releases a previously acquired token.
func (p *RedisProvider) Release(ctx context.Context, tok Token) error {
	rt, ok := tok.(*redisToken)
	if !ok {
		return ErrNotHeld
	}
	n, err := releaseScript.Run(ctx, p.client, []string{p.prefix + rt.key}, rt.value).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
