package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is the budget for one scope.
type Config struct {
	Requests int
	Window   time.Duration
}

// PerMinute returns a one-minute budget of n requests.
func PerMinute(n int) Config {
	return Config{Requests: n, Window: time.Minute}
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a sliding window limiter backed by a Redis sorted set.
type Limiter struct {
	client *redis.Client
	config Config
	scope  string
	now    func() time.Time
}

const keyPrefix = "calibrate:ratelimit:"

// KEYS[1] sorted set of request timestamps, KEYS[2] member counter.
// ARGV: now ms, window start ms, limit, window ms.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local counter_key = KEYS[2]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
	local seq = redis.call('INCR', counter_key)
	redis.call('ZADD', key, now, now .. ':' .. seq)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', counter_key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry_after = window_ms
if #oldest >= 2 then
	retry_after = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry_after}
`)

// NewLimiter creates a limiter for one scope, e.g. "api" or "analyze".
func NewLimiter(client *redis.Client, scope string, config Config) *Limiter {
	return &Limiter{
		client: client,
		config: config,
		scope:  scope,
		now:    time.Now,
	}
}

// Limit returns the number of requests allowed per window.
func (l *Limiter) Limit() int {
	return l.config.Requests
}

// Allow records one request for key and reports whether it fits the budget.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowMs := l.config.Window.Milliseconds()
	redisKey := keyPrefix + l.scope + ":" + key

	values, err := slidingWindow.Run(ctx, l.client, []string{redisKey, redisKey + ":seq"},
		now.UnixMilli(),
		now.UnixMilli()-windowMs,
		l.config.Requests,
		windowMs,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected rate limit result length: %d", len(values))
	}

	result := &Result{
		Allowed:   values[0] == 1,
		Limit:     l.config.Requests,
		Remaining: int(values[1]),
	}
	if !result.Allowed && values[2] > 0 {
		result.RetryAfter = time.Duration(values[2]) * time.Millisecond
	}
	return result, nil
}
