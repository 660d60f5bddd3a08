package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sneakdex/sneakdex-api/pkg/idx"
)

const redisKeyPrefix = "ratelimit:"

// slidingWindowScript performs the prune / count / conditional-add sequence
// atomically on the Redis side, so concurrent instances sharing one backend
// cannot both take the last slot. Scores are unix milliseconds; members are
// ULIDs to keep duplicate timestamps distinct.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)

local used = redis.call("ZCARD", key)
local allowed = 0
if used < limit then
	redis.call("ZADD", key, now, member)
	redis.call("PEXPIRE", key, window)
	allowed = 1
	used = used + 1
end

local oldest = 0
local first = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if first[2] then
	oldest = tonumber(first[2])
end

return {allowed, used, oldest}
`)

// RedisCounter is the shared Counter backend for multi-instance
// deployments. All instances pointing at the same Redis see one combined
// window per key.
type RedisCounter struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedisCounter(client redis.UniversalClient, window time.Duration) *RedisCounter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisCounter{
		client: client,
		window: window,
	}
}

func (c *RedisCounter) Window() time.Duration { return c.window }

func (c *RedisCounter) Incr(
	ctx context.Context,
	key string,
	limit int,
	now time.Time,
) (bool, int, time.Time, error) {
	res, err := slidingWindowScript.Run(ctx, c.client,
		[]string{redisKeyPrefix + key},
		now.UnixMilli(),
		c.window.Milliseconds(),
		limit,
		idx.New().String(),
	).Slice()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis incr: %w", err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis incr: unexpected reply %v", res)
	}

	allowed, ok1 := res[0].(int64)
	used, ok2 := res[1].(int64)
	oldestMillis, ok3 := res[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis incr: unexpected reply %v", res)
	}

	var oldest time.Time
	if oldestMillis > 0 {
		oldest = time.UnixMilli(oldestMillis).UTC()
	}

	return allowed == 1, int(used), oldest, nil
}
