package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arkforge/arkwatch/internal/auth"
	"github.com/arkforge/arkwatch/internal/mailer"
	"github.com/arkforge/arkwatch/internal/metrics"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

const (
	maxEmailLength = 254
	minNameLength  = 2
	maxNameLength  = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AccountService handles registration, verification and profile updates.
type AccountService struct {
	store    CredentialStore
	limiter  RateLimitStore
	limitReg bool
	authInv  AuthInvalidator
	mail     mailer.Sender
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewAccountService creates a new AccountService. limitRegistration toggles
// the per-IP registration window; the verification window stays on either way
// since it guards code brute-forcing, not signup volume.
func NewAccountService(
	store CredentialStore,
	limiter RateLimitStore,
	limitRegistration bool,
	authInv AuthInvalidator,
	mail mailer.Sender,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		store:    store,
		limiter:  limiter,
		limitReg: limitRegistration,
		authInv:  authInv,
		mail:     mail,
		logger:   logger,
		metrics:  recorder,
	}
}

// RegisterInput defines input for registering an account.
type RegisterInput struct {
	Email           string
	Name            string
	PrivacyAccepted bool
	ClientIP        string
}

// RegisterResult contains the created account and its one-time plaintext key.
type RegisterResult struct {
	Account *model.Account
	APIKey  string // shown once, never stored
}

// Register creates a free-tier account and issues its API key and
// verification code.
//
// Ordering matters for rate limiting: payload-shape failures (bad email,
// privacy not accepted) are rejected before a window slot is consumed, while
// name-length and duplicate-email failures consume one, matching the
// registration endpoint contract.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.PrivacyAccepted {
		return nil, ErrPrivacyNotAccepted
	}

	if s.limitReg {
		window, err := s.limiter.AllowRegistration(ctx, input.ClientIP)
		if err != nil {
			return nil, err
		}
		if !window.Allowed {
			s.metrics.IncRegistrationRateLimited()
			return nil, ErrRateLimited
		}
	}

	name := strings.TrimSpace(input.Name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}

	key, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	acc := &model.Account{
		ID:                ulid.Make().String(),
		Email:             email,
		Name:              name,
		KeyHash:           key.Hash,
		KeyPrefix:         key.Prefix,
		Tier:              model.TierFree,
		Verified:          false,
		VerificationHash:  &code.Hash,
		VerificationExp:   &code.ExpiresAt,
		PrivacyAccepted:   true,
		PrivacyAcceptedAt: &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	// Delivery is best-effort; a lost email never fails the registration.
	if err := s.mail.SendVerificationCode(ctx, email, name, code.Plaintext); err != nil {
		s.logger.Warn("verification email failed", slog.String("error", err.Error()))
	}
	if err := s.mail.SendWelcome(ctx, email, name); err != nil {
		s.logger.Warn("welcome email failed", slog.String("error", err.Error()))
	}

	s.metrics.IncRegistration()
	return &RegisterResult{Account: acc, APIKey: key.Plaintext}, nil
}

// VerifyEmail checks a submitted verification code and marks the account
// verified. Verifying an already-verified account succeeds without side
// effects. An unknown email and a wrong code are indistinguishable.
func (s *AccountService) VerifyEmail(ctx context.Context, rawEmail, code string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return ErrInvalidCode
	}

	window, err := s.limiter.AllowVerification(ctx, email)
	if err != nil {
		return err
	}
	if !window.Allowed {
		return ErrRateLimited
	}

	acc, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if acc.Verified {
		_ = s.limiter.ResetVerification(ctx, email)
		return nil
	}

	if acc.VerificationHash == nil {
		return ErrInvalidCode
	}
	if acc.VerificationExp != nil && acc.VerificationExp.Before(time.Now().UTC()) {
		return ErrInvalidCode
	}
	if !auth.VerifyCode(strings.TrimSpace(code), *acc.VerificationHash) {
		return ErrInvalidCode
	}

	if err := s.store.MarkVerified(ctx, acc.ID); err != nil {
		return err
	}

	// The cached auth context still says unverified; drop it so the
	// verified gate lifts immediately.
	if err := s.authInv.InvalidateAccountAuth(ctx, acc.ID); err != nil {
		s.logger.Warn("auth cache invalidation failed", slog.String("account_id", acc.ID))
	}

	_ = s.limiter.ResetVerification(ctx, email)
	s.metrics.IncEmailVerified()
	return nil
}

// ResendVerification issues a fresh code for an unverified account.
// The outcome is identical whether or not the email exists, so the endpoint
// cannot be used for enumeration. Consumes a registration window slot.
func (s *AccountService) ResendVerification(ctx context.Context, rawEmail, clientIP string) error {
	if s.limitReg {
		window, err := s.limiter.AllowRegistration(ctx, clientIP)
		if err != nil {
			return err
		}
		if !window.Allowed {
			return ErrRateLimited
		}
	}

	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil
	}

	acc, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil || acc.Verified {
		return nil
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return err
	}

	if err := s.store.SetVerificationCode(ctx, acc.ID, code.Hash, code.ExpiresAt); err != nil {
		return err
	}

	if err := s.mail.SendVerificationCode(ctx, email, acc.Name, code.Plaintext); err != nil {
		s.logger.Warn("verification email failed", slog.String("error", err.Error()))
	}
	return nil
}

// UpdateAccountInput defines input for a partial profile update.
type UpdateAccountInput struct {
	Name *string
}

// UpdateAccount applies a partial profile update and returns the names of
// the fields that changed. An empty field set is rejected.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, input UpdateAccountInput) ([]string, error) {
	fields := make(map[string]string)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < minNameLength || len(name) > maxNameLength {
			return nil, ErrInvalidName
		}
		fields["name"] = name
	}

	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	if err := s.store.UpdateAccountFields(ctx, accountID, fields); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	updated := make([]string, 0, len(fields))
	for field := range fields {
		updated = append(updated, field)
	}
	return updated, nil
}

// NormalizeEmail trims, lowercases and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
