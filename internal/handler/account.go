package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/arkforge/arkwatch/internal/auth"
	"github.com/arkforge/arkwatch/internal/handler/dto"
	"github.com/arkforge/arkwatch/internal/middleware"
	"github.com/arkforge/arkwatch/internal/service"
)

// AccountHandler handles registration, verification and account lifecycle.
type AccountHandler struct {
	svc    *service.AccountService
	gdpr   *service.GDPRService
	policy string
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, gdpr *service.GDPRService, policyURL string, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		gdpr:   gdpr,
		policy: policyURL,
		logger: logger,
	}
}

// Register handles POST /api/v1/auth/register.
// The plaintext API key appears in this response and nowhere else.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		PrivacyAccepted: req.PrivacyAccepted,
		ClientIP:        getClientIP(r),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("account_registered",
		"account_id", result.Account.ID,
		"key_prefix", result.Account.KeyPrefix,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.RegisterResponse{
		APIKey:        result.APIKey,
		Email:         result.Account.Email,
		Name:          result.Account.Name,
		Tier:          string(result.Account.Tier),
		Message:       "Save your API key now. It will not be shown again. Check your inbox for the verification code.",
		PrivacyPolicy: h.policy,
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email.
func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyEmailResponse{
		Status:  "verified",
		Message: "Email verified. Your account is fully active.",
	})
}

// ResendVerification handles POST /api/v1/auth/resend-verification.
// Responds 200 whether or not the email exists.
func (h *AccountHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.ResendVerification(r.Context(), req.Email, getClientIP(r)); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ResendVerificationResponse{
		Status:  "ok",
		Message: "If the address is registered and unverified, a new code is on its way.",
	})
}

// Update handles PATCH /api/v1/auth/account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	var req dto.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	updated, err := h.svc.UpdateAccount(r.Context(), authCtx.AccountID, service.UpdateAccountInput{
		Name: req.Name,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpdateAccountResponse{
		Status:        "updated",
		UpdatedFields: updated,
	})
}

// ExportData handles GET /api/v1/auth/account/data.
// Returns every record held for the calling account (GDPR Art. 15).
func (h *AccountHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	export, err := h.gdpr.ExportData(r.Context(), authCtx.AccountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	watches := make([]dto.WatchResponse, 0, len(export.Watches))
	for _, watch := range export.Watches {
		watches = append(watches, *dto.ToWatchResponse(watch))
	}

	writeJSON(w, http.StatusOK, dto.ExportResponse{
		Account:       dto.ToAccountResponse(export.Account),
		Watches:       watches,
		PrivacyPolicy: export.PrivacyPolicy,
		Message:       export.Message,
	})
}

// Delete handles DELETE /api/v1/auth/account.
// Erases the account and all owned data (GDPR Art. 17). The API key stops
// working immediately.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	receipt, err := h.gdpr.DeleteAccount(r.Context(), authCtx.AccountID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("account_deleted",
		"account_id", authCtx.AccountID,
		"watches_deleted", receipt.WatchesDeleted,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.DeleteAccountResponse{
		Status: "deleted",
		Email:  receipt.Email,
		DataDeleted: map[string]any{
			"account": 1,
			"watches": receipt.WatchesDeleted,
		},
		Message: "All your data has been permanently deleted (GDPR Art. 17).",
	})
}

// handleServiceError maps service errors to HTTP responses.
func (h *AccountHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		h.writeError(w, http.StatusUnprocessableEntity, "INVALID_EMAIL", "A valid email address is required")
	case errors.Is(err, service.ErrPrivacyNotAccepted):
		h.writeError(w, http.StatusUnprocessableEntity, "PRIVACY_NOT_ACCEPTED", "You must accept the privacy policy to register")
	case errors.Is(err, service.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, "INVALID_NAME", "Name must be between 2 and 100 characters")
	case errors.Is(err, service.ErrEmailExists):
		h.writeError(w, http.StatusConflict, "EMAIL_EXISTS", "An account with this email already exists")
	case errors.Is(err, service.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts. Try again later.")
	case errors.Is(err, service.ErrInvalidCode):
		h.writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid or expired verification code")
	case errors.Is(err, service.ErrNoFields):
		h.writeError(w, http.StatusBadRequest, "NO_FIELDS", "No updatable fields provided")
	case errors.Is(err, service.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AccountHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// getClientIP extracts the client IP address from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For (first IP is the original client)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr, stripping the port
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
