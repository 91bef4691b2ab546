package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arkforge/arkwatch/internal/auth"
	"github.com/arkforge/arkwatch/internal/handler/dto"
	"github.com/arkforge/arkwatch/internal/service"
)

// WatchHandler handles HTTP requests for watch operations.
type WatchHandler struct {
	svc    *service.WatchService
	logger *slog.Logger
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(svc *service.WatchService, logger *slog.Logger) *WatchHandler {
	return &WatchHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/watches.
func (h *WatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	var req dto.CreateWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	watch, err := h.svc.CreateWatch(r.Context(), service.CreateWatchInput{
		OwnerID:       authCtx.AccountID,
		Tier:          string(authCtx.Tier),
		URL:           req.URL,
		Name:          req.Name,
		CheckInterval: req.CheckInterval,
		NotifyEmail:   req.NotifyEmail,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("watch_created",
		"watch_id", watch.ID,
		"account_id", authCtx.AccountID,
		"check_interval", watch.CheckInterval,
	)

	writeJSON(w, http.StatusOK, dto.ToWatchResponse(watch))
}

// List handles GET /api/v1/watches.
// Supports an optional ?status= filter; results are newest first.
func (h *WatchHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	watches, err := h.svc.ListWatches(r.Context(), authCtx.AccountID, r.URL.Query().Get("status"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWatchListResponse(watches))
}

// Get handles GET /api/v1/watches/{id}.
func (h *WatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Watch ID is required")
		return
	}

	watch, err := h.svc.GetWatch(r.Context(), id, authCtx.AccountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToWatchResponse(watch))
}

// Update handles PATCH /api/v1/watches/{id}.
func (h *WatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Watch ID is required")
		return
	}

	var req dto.UpdateWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	watch, err := h.svc.UpdateWatch(r.Context(), service.UpdateWatchInput{
		ID:            id,
		OwnerID:       authCtx.AccountID,
		Tier:          string(authCtx.Tier),
		Name:          req.Name,
		CheckInterval: req.CheckInterval,
		NotifyEmail:   req.NotifyEmail,
		Status:        req.Status,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("watch_updated",
		"watch_id", watch.ID,
		"account_id", authCtx.AccountID,
	)

	writeJSON(w, http.StatusOK, dto.ToWatchResponse(watch))
}

// Delete handles DELETE /api/v1/watches/{id}.
func (h *WatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Watch ID is required")
		return
	}

	if err := h.svc.DeleteWatch(r.Context(), id, authCtx.AccountID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("watch_deleted", "watch_id", id, "account_id", authCtx.AccountID)

	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *WatchHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWatchNotFound):
		h.writeError(w, http.StatusNotFound, "WATCH_NOT_FOUND", "Watch not found")
	case errors.Is(err, service.ErrQuotaExceeded):
		h.writeError(w, http.StatusForbidden, "QUOTA_EXCEEDED", "Watch quota for your tier is exhausted. Delete a watch or upgrade.")
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(w, http.StatusBadRequest, "INVALID_URL", "URL must be a valid http or https address")
	case errors.Is(err, service.ErrInvalidWatchName):
		h.writeError(w, http.StatusBadRequest, "INVALID_NAME", "Watch name is required")
	case errors.Is(err, service.ErrInvalidStatus):
		h.writeError(w, http.StatusBadRequest, "INVALID_STATUS", "Status must be active or paused")
	case errors.Is(err, service.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *WatchHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
