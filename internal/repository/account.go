package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arkforge/arkwatch/internal/model"
)

// Common errors for account repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrNoFields        = errors.New("no fields to update")
)

const accountColumns = `id, email, name, key_hash, key_prefix, tier, verified,
	verification_code_hash, verification_expires, privacy_accepted,
	privacy_accepted_at, requests_count, created_at, updated_at`

// CreateAccount inserts a new account. The insert is a single statement,
// so a registration either fully lands or not at all.
func (r *Repository) CreateAccount(ctx context.Context, acc *model.Account) error {
	query := `
		INSERT INTO accounts (id, email, name, key_hash, key_prefix, tier, verified,
			verification_code_hash, verification_expires, privacy_accepted,
			privacy_accepted_at, requests_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.Email,
		acc.Name,
		acc.KeyHash,
		acc.KeyPrefix,
		acc.Tier,
		acc.Verified,
		acc.VerificationHash,
		acc.VerificationExp,
		acc.PrivacyAccepted,
		acc.PrivacyAcceptedAt,
		acc.RequestsCount,
		acc.CreatedAt,
		acc.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return acc, nil
}

// GetAccountByEmail retrieves an account by its normalized email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	acc, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return acc, nil
}

// GetAccountsByKeyPrefix retrieves all accounts whose API key shares a prefix.
// Multiple results are possible on prefix collision; the caller verifies the
// full key against each candidate hash.
func (r *Repository) GetAccountsByKeyPrefix(ctx context.Context, prefix string) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE key_prefix = $1`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts by key prefix: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// UpdateAccountFields applies a partial profile update.
// Only whitelisted columns may appear in fields; an empty set is rejected
// with ErrNoFields so callers can map it to an invalid-argument response.
func (r *Repository) UpdateAccountFields(ctx context.Context, id string, fields map[string]string) error {
	if len(fields) == 0 {
		return ErrNoFields
	}

	allowed := map[string]bool{"name": true}

	query := `UPDATE accounts SET updated_at = $2`
	args := []any{id, time.Now().UTC()}
	argIndex := 3

	for column, value := range fields {
		if !allowed[column] {
			return fmt.Errorf("field %q is not updatable", column)
		}
		query += fmt.Sprintf(", %s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	query += " WHERE id = $1"

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetVerificationCode replaces the pending verification code for an account.
func (r *Repository) SetVerificationCode(ctx context.Context, id, codeHash string, expires time.Time) error {
	query := `
		UPDATE accounts
		SET verification_code_hash = $2, verification_expires = $3, updated_at = NOW()
		WHERE id = $1 AND verified = FALSE
	`

	result, err := r.pool.Exec(ctx, query, id, codeHash, expires)
	if err != nil {
		return fmt.Errorf("failed to set verification code: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// MarkVerified flags the account as verified and consumes the pending code.
func (r *Repository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET verified = TRUE, verification_code_hash = NULL,
			verification_expires = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// IncrementRequestsCount bumps the per-account request counter.
// Called asynchronously from the auth path, so failures are non-fatal.
func (r *Repository) IncrementRequestsCount(ctx context.Context, id string) error {
	query := `UPDATE accounts SET requests_count = requests_count + 1 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment requests count: %w", err)
	}

	return nil
}

// DeletionResult reports what a cascading account deletion removed.
type DeletionResult struct {
	WatchesDeleted int64
}

// DeleteAccountData removes an account and everything it owns in one
// transaction. The owner row lock serializes the cascade against concurrent
// watch creation for the same account; rows are hard-deleted so the email
// becomes reusable immediately.
func (r *Repository) DeleteAccountData(ctx context.Context, id string) (*DeletionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin deletion transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var lockedID string
	err = tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account for deletion: %w", err)
	}

	watches, err := tx.Exec(ctx, `DELETE FROM watches WHERE owner_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete watches: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deletion: %w", err)
	}

	return &DeletionResult{WatchesDeleted: watches.RowsAffected()}, nil
}

// scanAccount scans a single row into an Account model.
func scanAccount(row pgx.Row) (*model.Account, error) {
	var acc model.Account
	err := row.Scan(
		&acc.ID,
		&acc.Email,
		&acc.Name,
		&acc.KeyHash,
		&acc.KeyPrefix,
		&acc.Tier,
		&acc.Verified,
		&acc.VerificationHash,
		&acc.VerificationExp,
		&acc.PrivacyAccepted,
		&acc.PrivacyAcceptedAt,
		&acc.RequestsCount,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	return &acc, err
}
