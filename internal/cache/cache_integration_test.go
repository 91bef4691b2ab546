//go:build integration

package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/arkforge/arkwatch/internal/model"
)

// newCacheTestEnv connects to Redis and flushes it. testutil would be the
// natural home for this, but it imports this package, so the helper lives here.
func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	ctx := context.Background()
	c, err := New(ctx, redisURL, PoolOptions{})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	if err := c.Client().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationRegistrationWindow(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	ip := "203.0.113.7"
	for i := 0; i < RegistrationLimit; i++ {
		result, err := c.AllowRegistration(ctx, ip)
		if err != nil {
			t.Fatalf("AllowRegistration failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
		wantRemaining := int64(RegistrationLimit - i - 1)
		if result.Remaining != wantRemaining {
			t.Errorf("request %d remaining = %d, want %d", i+1, result.Remaining, wantRemaining)
		}
	}

	result, err := c.AllowRegistration(ctx, ip)
	if err != nil {
		t.Fatalf("AllowRegistration failed: %v", err)
	}
	if result.Allowed {
		t.Error("request over limit allowed, want rejected")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", result.RetryAfter)
	}

	// A different IP has its own window
	other, err := c.AllowRegistration(ctx, "203.0.113.8")
	if err != nil {
		t.Fatalf("AllowRegistration failed: %v", err)
	}
	if !other.Allowed {
		t.Error("different IP rejected, want allowed")
	}
}

func TestIntegrationRejectedAttemptsDoNotExtendWindow(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	ip := "203.0.113.9"
	for i := 0; i < RegistrationLimit+5; i++ {
		if _, err := c.AllowRegistration(ctx, ip); err != nil {
			t.Fatalf("AllowRegistration failed: %v", err)
		}
	}

	// The stored count stops at the limit; rejected attempts are not counted
	count, err := c.Client().Get(ctx, registrationLimitPrefix+hashIP(ip)).Int64()
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if count != RegistrationLimit {
		t.Errorf("stored count = %d, want %d", count, RegistrationLimit)
	}
}

func TestIntegrationVerificationWindowReset(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	email := "ada@example.com"
	for i := 0; i < VerifyLimit; i++ {
		result, err := c.AllowVerification(ctx, email)
		if err != nil {
			t.Fatalf("AllowVerification failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d rejected, want allowed", i+1)
		}
	}

	result, err := c.AllowVerification(ctx, email)
	if err != nil {
		t.Fatalf("AllowVerification failed: %v", err)
	}
	if result.Allowed {
		t.Error("attempt over limit allowed, want rejected")
	}

	if err := c.ResetVerification(ctx, email); err != nil {
		t.Fatalf("ResetVerification failed: %v", err)
	}

	result, err = c.AllowVerification(ctx, email)
	if err != nil {
		t.Fatalf("AllowVerification failed: %v", err)
	}
	if !result.Allowed {
		t.Error("attempt after reset rejected, want allowed")
	}
}

func TestIntegrationWindowConcurrency(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	ip := "203.0.113.10"
	var allowed int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := c.AllowRegistration(ctx, ip)
			if err != nil {
				t.Errorf("AllowRegistration error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != RegistrationLimit {
		t.Errorf("allowed = %d, want exactly %d", allowed, RegistrationLimit)
	}
}

func TestIntegrationAuthContextRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	authCtx := &model.AuthContext{
		AccountID: "acct-1",
		KeyPrefix: "7a9c3e",
		Email:     "ada@example.com",
		Tier:      model.TierPro,
		Verified:  true,
	}

	if err := c.SetAuthContext(ctx, "cache-key-1", authCtx); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}

	got, err := c.GetAuthContext(ctx, "cache-key-1")
	if err != nil {
		t.Fatalf("GetAuthContext failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetAuthContext returned nil, want cached context")
	}
	if got.AccountID != authCtx.AccountID || got.Tier != authCtx.Tier || !got.Verified {
		t.Errorf("cached context mismatch: got %+v", got)
	}
}

func TestIntegrationAuthContextMiss(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	got, err := c.GetAuthContext(ctx, "never-stored")
	if err != nil {
		t.Fatalf("GetAuthContext failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetAuthContext = %+v, want nil miss", got)
	}
}

func TestIntegrationInvalidateAccountAuth(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	authCtx := &model.AuthContext{
		AccountID: "acct-2",
		KeyPrefix: "7a9c3e",
		Email:     "grace@example.com",
		Tier:      model.TierFree,
	}
	if err := c.SetAuthContext(ctx, "cache-key-2", authCtx); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}

	// Invalidation goes by account ID, via the reverse index
	if err := c.InvalidateAccountAuth(ctx, "acct-2"); err != nil {
		t.Fatalf("InvalidateAccountAuth failed: %v", err)
	}

	got, err := c.GetAuthContext(ctx, "cache-key-2")
	if err != nil {
		t.Fatalf("GetAuthContext failed: %v", err)
	}
	if got != nil {
		t.Errorf("auth context survived invalidation: %+v", got)
	}

	// Invalidating an account with nothing cached is a no-op
	if err := c.InvalidateAccountAuth(ctx, "acct-unknown"); err != nil {
		t.Errorf("InvalidateAccountAuth for unknown account failed: %v", err)
	}
}
