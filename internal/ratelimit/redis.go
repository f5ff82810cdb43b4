package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"
)

const redisKeyPrefix = "ratelimit:"

// The counter and its expiry must move together, so both sides run in one
// script. Returns {admitted, retry-after ms}.
var allowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
	return {0, redis.call('PTTL', KEYS[1])}
end
return {1, 0}
`)

// RedisLimiter is the fixed window counter shared across processes. Same
// policy as MemoryLimiter, with the window expiry carried by the key TTL.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRedisLimiter(client *redis.Client, window time.Duration, max int) *RedisLimiter {
	return &RedisLimiter{client: client, window: window, max: max}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := allowScript.Run(ctx, l.client, []string{redisKeyPrefix + key},
		l.window.Milliseconds(), l.max).Int64Slice()
	if err != nil {
		return false, 0, errors.Wrapf(err, "error running rate limit script for key: %s", key)
	}
	if len(res) != 2 {
		return false, 0, errors.Errorf("unexpected rate limit script result for key: %s: %v", key, res)
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}
