// Package model defines domain entities for the application.
package model

import "time"

// WatchStatus represents the lifecycle status of a watch.
type WatchStatus string

const (
	WatchStatusActive  WatchStatus = "active"
	WatchStatusPaused  WatchStatus = "paused"
	WatchStatusDeleted WatchStatus = "deleted"
)

// IsValid checks if the status is one a client may set.
// Deleted is computed from deleted_at and never set directly.
func (s WatchStatus) IsValid() bool {
	return s == WatchStatusActive || s == WatchStatusPaused
}

// Watch represents a monitored URL owned by one account.
type Watch struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"-"`
	URL           string      `json:"url"`
	Name          string      `json:"name"`
	CheckInterval int         `json:"check_interval"` // seconds
	NotifyEmail   *string     `json:"notify_email,omitempty"`
	RawStatus     WatchStatus `json:"-"`
	DeletedAt     *time.Time  `json:"-"`
	LastCheckedAt *time.Time  `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Status computes the current status of the watch.
func (w *Watch) Status() WatchStatus {
	if w.DeletedAt != nil {
		return WatchStatusDeleted
	}
	return w.RawStatus
}

// IsDeleted returns true if the watch has been soft-deleted.
func (w *Watch) IsDeleted() bool {
	return w.DeletedAt != nil
}
