package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arkforge/arkwatch/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authAccountIndexPrefix maps account IDs back to their cached auth
	// context key, so deletion and verification can invalidate without
	// knowing the plaintext API key.
	authAccountIndexPrefix = "auth:acct:"
	// authCacheTTL is the time-to-live for cached auth contexts.
	authCacheTTL = 5 * time.Minute
)

// CachedAuthContext represents auth context stored in Redis.
type CachedAuthContext struct {
	AccountID string `json:"account_id"`
	KeyPrefix string `json:"key_prefix"`
	Email     string `json:"email"`
	Tier      string `json:"tier"`
	Verified  bool   `json:"verified"`
}

// GetAuthContext retrieves a cached auth context by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		AccountID: cached.AccountID,
		KeyPrefix: cached.KeyPrefix,
		Email:     cached.Email,
		Tier:      cached.Tier,
		Verified:  cached.Verified,
	}, nil
}

// SetAuthContext caches an auth context and records the reverse index
// used for account-scoped invalidation.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	key := authCachePrefix + cacheKey

	cached := CachedAuthContext{
		AccountID: auth.AccountID,
		KeyPrefix: auth.KeyPrefix,
		Email:     auth.Email,
		Tier:      auth.Tier,
		Verified:  auth.Verified,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, authCacheTTL)
	pipe.Set(ctx, authAccountIndexPrefix+auth.AccountID, cacheKey, authCacheTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateAccountAuth drops the cached auth context for an account.
// Called after account deletion (the key must fail immediately) and after
// verification state changes (the 403 gate must lift without waiting for TTL).
func (c *Cache) InvalidateAccountAuth(ctx context.Context, accountID string) error {
	indexKey := authAccountIndexPrefix + accountID

	cacheKey, err := c.client.Get(ctx, indexKey).Result()
	if err != nil {
		// No index entry means nothing cached
		return nil //nolint:nilerr
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, authCachePrefix+cacheKey)
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}
