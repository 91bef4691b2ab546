// Package service provides business logic for the application.
package service

import (
	"context"
	"time"

	"github.com/arkforge/arkwatch/internal/cache"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

// CredentialStore is the account persistence contract.
// *repository.Repository is the production implementation.
type CredentialStore interface {
	CreateAccount(ctx context.Context, acc *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	UpdateAccountFields(ctx context.Context, id string, fields map[string]string) error
	SetVerificationCode(ctx context.Context, id, codeHash string, expires time.Time) error
	MarkVerified(ctx context.Context, id string) error
	DeleteAccountData(ctx context.Context, id string) (*repository.DeletionResult, error)
}

// WatchStore is the watch persistence contract.
// CreateWatchWithinQuota must serialize the quota check and the insert per
// account; implementations back this with a row lock or equivalent.
type WatchStore interface {
	CreateWatchWithinQuota(ctx context.Context, watch *model.Watch, maxWatches int) error
	GetWatch(ctx context.Context, id, ownerID string) (*model.Watch, error)
	ListWatchesByOwner(ctx context.Context, ownerID string, status model.WatchStatus) ([]*model.Watch, error)
	// ListAllWatchesByOwner includes soft-deleted rows; data exports need
	// every record still held, not just the live ones.
	ListAllWatchesByOwner(ctx context.Context, ownerID string) ([]*model.Watch, error)
	UpdateWatch(ctx context.Context, watch *model.Watch) error
	SoftDeleteWatch(ctx context.Context, id, ownerID string) error
}

// RateLimitStore tracks sliding registration and verification windows.
// Check and increment are a single atomic step in every implementation.
type RateLimitStore interface {
	AllowRegistration(ctx context.Context, ip string) (*cache.WindowResult, error)
	AllowVerification(ctx context.Context, email string) (*cache.WindowResult, error)
	ResetVerification(ctx context.Context, email string) error
}

// AuthInvalidator drops cached auth state for an account.
// Needed so deletion and verification changes take effect immediately
// instead of waiting out the cache TTL.
type AuthInvalidator interface {
	InvalidateAccountAuth(ctx context.Context, accountID string) error
}
