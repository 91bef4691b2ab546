// Package testutil provides helpers shared by integration and unit tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/arkforge/arkwatch/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 740740

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates the full schema for tests.
// Watches depend on accounts, so order matters in both directions.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	steps := []string{
		filepath.Join(root, "migrations", "000002_watches.down.sql"),
		filepath.Join(root, "migrations", "000001_accounts.down.sql"),
		filepath.Join(root, "migrations", "000001_accounts.up.sql"),
		filepath.Join(root, "migrations", "000002_watches.up.sql"),
	}

	for _, path := range steps {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestAccount creates a test account with sensible defaults.
func NewTestAccount(t testing.TB, email string) *model.Account {
	t.Helper()
	now := time.Now().UTC()
	acceptedAt := now
	return &model.Account{
		ID:                fmt.Sprintf("acct-%d", now.UnixNano()),
		Email:             email,
		Name:              "Test Account",
		KeyHash:           fmt.Sprintf("hash-%d", now.UnixNano()),
		KeyPrefix:         "abc123",
		Tier:              model.TierFree,
		Verified:          true,
		PrivacyAccepted:   true,
		PrivacyAcceptedAt: &acceptedAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NewTestWatch creates a test watch with sensible defaults.
func NewTestWatch(t testing.TB, ownerID string) *model.Watch {
	t.Helper()
	now := time.Now().UTC()
	return &model.Watch{
		ID:            fmt.Sprintf("watch-%d", now.UnixNano()),
		OwnerID:       ownerID,
		URL:           "https://example.com/status",
		Name:          "Test Watch",
		CheckInterval: 3600,
		RawStatus:     model.WatchStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
