package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/config"
)

// limiterScript implements a token bucket in Redis. It refills the
// bucket based on elapsed time, then takes one token if available.
// Returns {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_tokens = tonumber(ARGV[2])
local refill_interval_ms = tonumber(ARGV[3])
local now_ms = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = capacity
  ts = now_ms
end

local elapsed = now_ms - ts
if elapsed > 0 and refill_interval_ms > 0 then
  local refills = math.floor(elapsed / refill_interval_ms)
  if refills > 0 then
    tokens = math.min(capacity, tokens + refills * refill_tokens)
    ts = ts + refills * refill_interval_ms
  end
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
else
  retry_ms = refill_interval_ms - (now_ms - ts)
  if retry_ms < 0 then retry_ms = 0 end
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', key, ttl_ms)
return {allowed, tokens, retry_ms}
`)

// rateKey identifies the bucket: one per client IP per route.
func rateKey(prefix string, c echo.Context) string {
	return fmt.Sprintf("%s:%s:%s %s", prefix, c.RealIP(), c.Request().Method, c.Path())
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

// NewTokenBucket rate-limits requests per client IP and route using a
// Lua token bucket, so the check is atomic across server instances.
// Redis being unreachable fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(cfg.Prefix, c)
			now := time.Now().UnixMilli()

			res, err := limiterScript.Run(ctx, rdb, []string{key},
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				now,
				cfg.TTL.Milliseconds(),
			).Result()
			if err != nil {
				return next(c)
			}

			vals, ok := res.([]interface{})
			if !ok || len(vals) != 3 {
				return next(c)
			}
			allowed := asInt64(vals[0]) == 1
			remaining := asInt64(vals[1])
			retryMS := asInt64(vals[2])

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				retrySec := (retryMS + 999) / 1000
				if retrySec < 1 {
					retrySec = 1
				}
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retrySec, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
