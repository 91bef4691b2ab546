package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/arkforge/arkwatch/internal/metrics"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

// GDPRService orchestrates data export (Art. 15) and cascading account
// erasure (Art. 17) across the credential and watch stores.
type GDPRService struct {
	accounts CredentialStore
	watches  WatchStore
	authInv  AuthInvalidator
	policy   string // privacy policy URL
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewGDPRService creates a new GDPRService.
func NewGDPRService(
	accounts CredentialStore,
	watches WatchStore,
	authInv AuthInvalidator,
	policyURL string,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *GDPRService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GDPRService{
		accounts: accounts,
		watches:  watches,
		authInv:  authInv,
		policy:   policyURL,
		logger:   logger,
		metrics:  recorder,
	}
}

// AccountExport is everything held about one account.
type AccountExport struct {
	Account       *model.Account `json:"account"`
	Watches       []*model.Watch `json:"watches"`
	PrivacyPolicy string         `json:"privacy_policy"`
	Message       string         `json:"message"`
}

// ExportData aggregates the caller's own records. Soft-deleted watches are
// still stored, so they appear in the export with status "deleted" until
// account erasure removes them for good.
func (s *GDPRService) ExportData(ctx context.Context, accountID string) (*AccountExport, error) {
	acc, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	watches, err := s.watches.ListAllWatchesByOwner(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if watches == nil {
		watches = []*model.Watch{}
	}

	return &AccountExport{
		Account:       acc,
		Watches:       watches,
		PrivacyPolicy: s.policy,
		Message:       "This is all the data we hold about you (GDPR Art. 15).",
	}, nil
}

// DeletionReceipt reports what an account erasure removed.
type DeletionReceipt struct {
	Email          string
	WatchesDeleted int64
}

// DeleteAccount irreversibly erases the account and every watch it owns in
// one transaction, then drops the cached auth context so the deleted API key
// fails the very next request. A failed cascade rolls back completely.
func (s *GDPRService) DeleteAccount(ctx context.Context, accountID string) (*DeletionReceipt, error) {
	acc, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	result, err := s.accounts.DeleteAccountData(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := s.authInv.InvalidateAccountAuth(ctx, accountID); err != nil {
		// The row is gone, so auth falls through to the store and fails
		// anyway once the cache TTL expires; log and continue.
		s.logger.Warn("auth cache invalidation failed after deletion",
			slog.String("account_id", accountID))
	}

	s.logger.Info("account erased",
		slog.String("account_id", accountID),
		slog.Int64("watches_deleted", result.WatchesDeleted),
	)

	s.metrics.IncAccountDeleted()
	return &DeletionReceipt{
		Email:          acc.Email,
		WatchesDeleted: result.WatchesDeleted,
	}, nil
}
