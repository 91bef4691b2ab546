package dto

import (
	"time"

	"github.com/arkforge/arkwatch/internal/model"
)

// CreateWatchRequest represents the request body for creating a watch.
type CreateWatchRequest struct {
	URL           string  `json:"url"`
	Name          string  `json:"name"`
	CheckInterval int     `json:"check_interval,omitempty"`
	NotifyEmail   *string `json:"notify_email,omitempty"`
}

// UpdateWatchRequest represents the request body for updating a watch.
// All fields are optional; absent fields are left unchanged. The URL is
// immutable after creation, so it is not part of the update surface.
type UpdateWatchRequest struct {
	Name          *string `json:"name,omitempty"`
	CheckInterval *int    `json:"check_interval,omitempty"`
	NotifyEmail   *string `json:"notify_email,omitempty"`
	Status        *string `json:"status,omitempty"`
}

// WatchResponse represents a watch in API responses.
type WatchResponse struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Name          string     `json:"name"`
	CheckInterval int        `json:"check_interval"`
	NotifyEmail   *string    `json:"notify_email,omitempty"`
	Status        string     `json:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// WatchListResponse represents the owned watches of an account.
type WatchListResponse struct {
	Data  []WatchResponse `json:"data"`
	Count int             `json:"count"`
}

// ToWatchResponse converts a Watch model to WatchResponse DTO.
func ToWatchResponse(w *model.Watch) *WatchResponse {
	return &WatchResponse{
		ID:            w.ID,
		URL:           w.URL,
		Name:          w.Name,
		CheckInterval: w.CheckInterval,
		NotifyEmail:   w.NotifyEmail,
		Status:        string(w.Status()),
		LastCheckedAt: w.LastCheckedAt,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// ToWatchListResponse converts a slice of watches to a list response.
func ToWatchListResponse(watches []*model.Watch) *WatchListResponse {
	data := make([]WatchResponse, 0, len(watches))
	for _, w := range watches {
		data = append(data, *ToWatchResponse(w))
	}
	return &WatchListResponse{Data: data, Count: len(data)}
}
