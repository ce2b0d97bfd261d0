package middleware

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/party-venue-reservation/internal/config"
	"github.com/iliyamo/party-venue-reservation/internal/metrics"
)

// bucketScript takes one token from the bucket at KEYS[1], refilling it
// first.  ARGV: now_ms, burst, refill_ms, idle_s.  It returns
// {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local now    = tonumber(ARGV[1])
local burst  = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local idle   = tonumber(ARGV[4])

local st = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(st[1]) or burst
local ts = tonumber(st[2]) or now

local earned = math.floor(math.max(0, now - ts) / refill)
if earned > 0 then
  tokens = math.min(burst, tokens + earned)
  ts = ts + earned * refill
end

local allowed, retry = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, refill - (now - ts))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], idle)
return {allowed, tokens, retry}
`)

var errBucketReply = errors.New("rate limit: unexpected script reply")

// bucketResult is the outcome of one take.
type bucketResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketResult, error) {
	vals, err := bucketScript.Run(ctx, rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Burst,
		cfg.RefillEvery.Milliseconds(),
		int64(math.Ceil(cfg.Idle.Seconds())),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, errBucketReply
	}
	return bucketResult{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket answers 429 once the caller's bucket is empty.  Callers
// are keyed by user id when JWTAuth ran first and by IP otherwise;
// PerRoute buckets add the route.
// A missing client or a Redis error lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, m *metrics.Metrics) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := take(c.Request().Context(), rdb, cfg, key)
			if err != nil {
				slog.WarnContext(c.Request().Context(), "rate limit check failed", "key", key, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.Allowed {
				return next(c)
			}

			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			m.ObserveRateLimited(cfg.Scope)
			if cfg.Debug {
				slog.InfoContext(c.Request().Context(), "rate limited", "key", key, "retry_after_s", secs)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "demasiadas solicitudes",
				"retry_after": secs,
			})
		}
	}
}

// rateKey is scope:u:<id> for sessions and scope:ip:<addr> for guests.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	key := cfg.Scope
	if uid := userID(c); uid != "anon" {
		key += ":u:" + uid
	} else {
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		key += ":ip:" + ip
	}
	if cfg.PerRoute {
		key += ":" + c.Request().Method + ":" + c.Path()
	}
	return key
}
