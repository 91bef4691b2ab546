package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// registrationLimitPrefix is the Redis key prefix for registration windows.
	registrationLimitPrefix = "ratelimit:register:"
	// verifyLimitPrefix is the Redis key prefix for verification windows.
	verifyLimitPrefix = "ratelimit:verify:"
)

// Default rate-limit policies, matching the registration contract:
// 3 registration calls per source IP per hour, 5 verification attempts
// per email per 15 minutes.
const (
	RegistrationLimit  = 3
	RegistrationWindow = time.Hour
	VerifyLimit        = 5
	VerifyWindow       = 15 * time.Minute
)

// WindowResult contains the result of a window check.
type WindowResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// fixedWindowScript atomically checks and consumes a fixed-window slot.
// The count is only incremented while under the limit, so the stored count
// never exceeds it; check and increment are one step.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])  -- seconds

	local count = tonumber(redis.call('GET', key) or '0')
	if count >= limit then
		local ttl = redis.call('TTL', key)
		if ttl < 0 then ttl = window end
		return {0, 0, ttl}
	end

	count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end

	return {1, limit - count, redis.call('TTL', key)}
`)

// AllowRegistration consumes a registration slot for a source IP.
// The IP is hashed before use as a key to avoid storing raw addresses.
func (c *Cache) AllowRegistration(ctx context.Context, ip string) (*WindowResult, error) {
	key := registrationLimitPrefix + hashIP(ip)
	return c.checkWindow(ctx, key, RegistrationLimit, RegistrationWindow)
}

// AllowVerification consumes a verification-attempt slot for an email.
// Limits brute force against the 6-digit code space.
func (c *Cache) AllowVerification(ctx context.Context, email string) (*WindowResult, error) {
	key := verifyLimitPrefix + hashIP(email)
	return c.checkWindow(ctx, key, VerifyLimit, VerifyWindow)
}

// ResetVerification clears the verification window after a successful verify.
func (c *Cache) ResetVerification(ctx context.Context, email string) error {
	return c.client.Del(ctx, verifyLimitPrefix+hashIP(email)).Err()
}

// checkWindow is the common fixed-window implementation.
func (c *Cache) checkWindow(ctx context.Context, key string, limit int, window time.Duration) (*WindowResult, error) {
	result, err := fixedWindowScript.Run(ctx, c.client,
		[]string{key},
		limit, int(window.Seconds()),
	).Int64Slice()

	if err != nil {
		// Fail open on Redis errors - allow the request
		return &WindowResult{
			Allowed:   true,
			Remaining: int64(limit),
		}, nil
	}

	return &WindowResult{
		Allowed:    result[0] == 1,
		Remaining:  result[1],
		RetryAfter: time.Duration(result[2]) * time.Second,
	}, nil
}

// hashIP creates a truncated SHA256 hash of a rate-limit key component.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
