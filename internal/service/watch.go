package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arkforge/arkwatch/internal/metrics"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

// defaultCheckInterval applies when a client omits check_interval.
// Tier floors clamp it upward afterwards.
const defaultCheckInterval = 3600

// WatchService handles watch business logic: creation under quota,
// owner-scoped reads and partial updates.
type WatchService struct {
	store   WatchStore
	metrics metrics.Recorder
}

// NewWatchService creates a new WatchService.
func NewWatchService(store WatchStore, recorder metrics.Recorder) *WatchService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &WatchService{store: store, metrics: recorder}
}

// CreateWatchInput defines input for creating a watch.
type CreateWatchInput struct {
	OwnerID       string
	Tier          string
	URL           string
	Name          string
	CheckInterval int
	NotifyEmail   *string
}

// CreateWatch validates input, clamps the interval to the tier floor and
// inserts under the tier quota. The quota check and insert are one
// serialized unit in the store, so concurrent creations for the same
// account cannot jointly exceed the ceiling.
func (s *WatchService) CreateWatch(ctx context.Context, input CreateWatchInput) (*model.Watch, error) {
	if err := validateWatchURL(input.URL); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidWatchName
	}

	limits := model.LimitsForTier(input.Tier)

	interval := input.CheckInterval
	if interval == 0 {
		interval = defaultCheckInterval
	}
	if interval < limits.CheckIntervalMin {
		interval = limits.CheckIntervalMin
	}

	now := time.Now().UTC()
	watch := &model.Watch{
		ID:            uuid.New().String(),
		OwnerID:       input.OwnerID,
		URL:           input.URL,
		Name:          name,
		CheckInterval: interval,
		NotifyEmail:   input.NotifyEmail,
		RawStatus:     model.WatchStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateWatchWithinQuota(ctx, watch, limits.MaxWatches); err != nil {
		switch {
		case errors.Is(err, repository.ErrQuotaExceeded):
			s.metrics.IncQuotaRejected()
			return nil, ErrQuotaExceeded
		case errors.Is(err, repository.ErrAccountNotFound):
			// Owner vanished between auth and insert (concurrent deletion).
			return nil, ErrAccountNotFound
		default:
			return nil, err
		}
	}

	s.metrics.IncWatchCreated()
	return watch, nil
}

// GetWatch retrieves a single owned watch. An absent id and an id owned by
// another account both come back as ErrWatchNotFound.
func (s *WatchService) GetWatch(ctx context.Context, id, ownerID string) (*model.Watch, error) {
	watch, err := s.store.GetWatch(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrWatchNotFound) {
			return nil, ErrWatchNotFound
		}
		return nil, err
	}
	return watch, nil
}

// ListWatches retrieves the owner's non-deleted watches, newest first.
func (s *WatchService) ListWatches(ctx context.Context, ownerID, status string) ([]*model.Watch, error) {
	var filter model.WatchStatus
	if status != "" {
		filter = model.WatchStatus(status)
		if !filter.IsValid() {
			return nil, ErrInvalidStatus
		}
	}
	return s.store.ListWatchesByOwner(ctx, ownerID, filter)
}

// UpdateWatchInput defines input for a partial watch update.
// Nil fields are left untouched.
type UpdateWatchInput struct {
	ID            string
	OwnerID       string
	Tier          string
	Name          *string
	CheckInterval *int
	NotifyEmail   *string
	Status        *string
}

// UpdateWatch merges the provided fields into the stored watch and returns
// the merged resource. The interval floor applies to updates as well.
func (s *WatchService) UpdateWatch(ctx context.Context, input UpdateWatchInput) (*model.Watch, error) {
	watch, err := s.GetWatch(ctx, input.ID, input.OwnerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidWatchName
		}
		watch.Name = name
	}

	if input.CheckInterval != nil {
		limits := model.LimitsForTier(input.Tier)
		interval := *input.CheckInterval
		if interval < limits.CheckIntervalMin {
			interval = limits.CheckIntervalMin
		}
		watch.CheckInterval = interval
	}

	if input.NotifyEmail != nil {
		watch.NotifyEmail = input.NotifyEmail
	}

	if input.Status != nil {
		status := model.WatchStatus(*input.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		watch.RawStatus = status
	}

	watch.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateWatch(ctx, watch); err != nil {
		if errors.Is(err, repository.ErrWatchNotFound) {
			return nil, ErrWatchNotFound
		}
		return nil, err
	}

	s.metrics.IncWatchUpdated()
	return watch, nil
}

// DeleteWatch soft-deletes an owned watch. Subsequent gets return not-found.
func (s *WatchService) DeleteWatch(ctx context.Context, id, ownerID string) error {
	if err := s.store.SoftDeleteWatch(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrWatchNotFound) {
			return ErrWatchNotFound
		}
		return err
	}
	s.metrics.IncWatchDeleted()
	return nil
}

// validateWatchURL accepts absolute http(s) URLs with a host.
func validateWatchURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
