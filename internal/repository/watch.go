package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arkforge/arkwatch/internal/model"
)

// Common errors for watch repository operations.
var (
	// ErrWatchNotFound covers both an absent id and an id owned by another
	// account; callers cannot distinguish the two.
	ErrWatchNotFound = errors.New("watch not found")
	ErrQuotaExceeded = errors.New("watch quota exceeded")
)

const watchColumns = `id, owner_id, url, name, check_interval, notify_email,
	status, deleted_at, last_checked_at, created_at, updated_at`

// CreateWatchWithinQuota inserts a watch only if the owner stays within its
// tier quota. The owner row lock makes check-then-insert one serialized unit
// per account, so concurrent creations cannot jointly overshoot the ceiling,
// and a concurrent account deletion (which takes the same lock) cannot
// interleave with the insert.
func (r *Repository) CreateWatchWithinQuota(ctx context.Context, watch *model.Watch, maxWatches int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin watch transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var ownerID string
	err = tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, watch.OwnerID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to lock owner account: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM watches WHERE owner_id = $1 AND deleted_at IS NULL`,
		watch.OwnerID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count watches: %w", err)
	}

	if count >= maxWatches {
		return ErrQuotaExceeded
	}

	query := `
		INSERT INTO watches (id, owner_id, url, name, check_interval, notify_email,
			status, last_checked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		watch.ID,
		watch.OwnerID,
		watch.URL,
		watch.Name,
		watch.CheckInterval,
		watch.NotifyEmail,
		watch.RawStatus,
		watch.LastCheckedAt,
		watch.CreatedAt,
		watch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create watch: %w", err)
	}

	return tx.Commit(ctx)
}

// GetWatch retrieves a watch by id, scoped to its owner. Ownership is folded
// into the WHERE clause so absent and not-owned rows produce the same outcome.
func (r *Repository) GetWatch(ctx context.Context, id, ownerID string) (*model.Watch, error) {
	query := `
		SELECT ` + watchColumns + `
		FROM watches
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`

	watch, err := scanWatch(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWatchNotFound
		}
		return nil, fmt.Errorf("failed to get watch: %w", err)
	}

	return watch, nil
}

// ListWatchesByOwner retrieves all non-deleted watches for an account,
// newest first. Status filtering is optional.
func (r *Repository) ListWatchesByOwner(ctx context.Context, ownerID string, status model.WatchStatus) ([]*model.Watch, error) {
	query := `
		SELECT ` + watchColumns + `
		FROM watches
		WHERE owner_id = $1 AND deleted_at IS NULL
	`
	args := []any{ownerID}

	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list watches: %w", err)
	}
	defer rows.Close()

	var watches []*model.Watch
	for rows.Next() {
		watch, err := scanWatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		watches = append(watches, watch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watches: %w", err)
	}

	return watches, nil
}

// ListAllWatchesByOwner retrieves every watch an account has ever created,
// soft-deleted rows included, newest first. Data exports disclose rows the
// regular listing hides.
func (r *Repository) ListAllWatchesByOwner(ctx context.Context, ownerID string) ([]*model.Watch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+watchColumns+`
		FROM watches
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watches: %w", err)
	}
	defer rows.Close()

	var watches []*model.Watch
	for rows.Next() {
		watch, err := scanWatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		watches = append(watches, watch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watches: %w", err)
	}

	return watches, nil
}

// CountActiveWatches counts the non-deleted watches owned by an account.
func (r *Repository) CountActiveWatches(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM watches WHERE owner_id = $1 AND deleted_at IS NULL`,
		ownerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count watches: %w", err)
	}
	return count, nil
}

// UpdateWatch writes a watch's mutable fields, scoped to its owner.
func (r *Repository) UpdateWatch(ctx context.Context, watch *model.Watch) error {
	query := `
		UPDATE watches
		SET name = $3, check_interval = $4, notify_email = $5, status = $6, updated_at = $7
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query,
		watch.ID,
		watch.OwnerID,
		watch.Name,
		watch.CheckInterval,
		watch.NotifyEmail,
		watch.RawStatus,
		watch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update watch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrWatchNotFound
	}

	return nil
}

// SoftDeleteWatch marks a watch deleted. Subsequent owner reads miss it.
func (r *Repository) SoftDeleteWatch(ctx context.Context, id, ownerID string) error {
	query := `
		UPDATE watches
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete watch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrWatchNotFound
	}

	return nil
}

// scanWatch scans a single row into a Watch model.
func scanWatch(row pgx.Row) (*model.Watch, error) {
	var watch model.Watch
	err := row.Scan(
		&watch.ID,
		&watch.OwnerID,
		&watch.URL,
		&watch.Name,
		&watch.CheckInterval,
		&watch.NotifyEmail,
		&watch.RawStatus,
		&watch.DeletedAt,
		&watch.LastCheckedAt,
		&watch.CreatedAt,
		&watch.UpdatedAt,
	)
	return &watch, err
}
