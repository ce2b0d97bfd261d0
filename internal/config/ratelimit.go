package config

import "time"

// RateLimitConfig describes one Redis token bucket.  Burst tokens are
// available at once and one token comes back every RefillEvery.  Buckets
// idle for longer than Idle are dropped by Redis.
type RateLimitConfig struct {
	Enabled     bool
	Scope       string // key namespace and metric label
	Burst       int
	RefillEvery time.Duration
	Idle        time.Duration
	PerRoute    bool // one bucket per route instead of one per caller
	Debug       bool
}

// loadRateLimit builds the global bucket every request goes through.
func loadRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Scope:       envStr("RATE_LIMIT_PREFIX", "rl") + ":api",
		Burst:       envInt("RATE_LIMIT_BURST", 120),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 500*time.Millisecond),
		Idle:        envDur("RATE_LIMIT_IDLE", 10*time.Minute),
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}.normalize()
}

// loadAuthRateLimit builds the stricter bucket on signup, login and
// refresh.  It is per route so a burst of logins does not block refreshes.
func loadAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Scope:       envStr("RATE_LIMIT_PREFIX", "rl") + ":auth",
		Burst:       envInt("AUTH_RATE_LIMIT_BURST", 10),
		RefillEvery: envDur("AUTH_RATE_LIMIT_REFILL_EVERY", 6*time.Second),
		Idle:        envDur("RATE_LIMIT_IDLE", 10*time.Minute),
		PerRoute:    true,
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}.normalize()
}

// normalize clamps nonsense values.  A bucket must outlive a few refills or
// Redis would forget a drained caller before it refilled.
func (r RateLimitConfig) normalize() RateLimitConfig {
	if r.Burst < 1 {
		r.Burst = 1
	}
	if r.RefillEvery <= 0 {
		r.RefillEvery = time.Second
	}
	if floor := time.Duration(r.Burst) * r.RefillEvery; r.Idle < floor {
		r.Idle = floor
	}
	return r
}
