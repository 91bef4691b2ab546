// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/arkforge/arkwatch/internal/model"
)

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	PrivacyAccepted bool   `json:"privacy_accepted"`
}

// RegisterResponse is returned once, with the plaintext API key.
// The key is never retrievable again.
type RegisterResponse struct {
	APIKey        string `json:"api_key"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Tier          string `json:"tier"`
	Message       string `json:"message"`
	PrivacyPolicy string `json:"privacy_policy"`
}

// VerifyEmailRequest represents the request body for email verification.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyEmailResponse confirms a successful verification.
type VerifyEmailResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResendVerificationRequest represents the request body for resending a code.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// ResendVerificationResponse is returned regardless of whether the email
// exists, to prevent account enumeration.
type ResendVerificationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UpdateAccountRequest represents the request body for account updates.
type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty"`
}

// UpdateAccountResponse lists the fields that were changed.
type UpdateAccountResponse struct {
	Status        string   `json:"status"`
	UpdatedFields []string `json:"updated_fields"`
}

// DeleteAccountResponse is the GDPR erasure receipt.
type DeleteAccountResponse struct {
	Status      string         `json:"status"`
	Email       string         `json:"email"`
	DataDeleted map[string]any `json:"data_deleted"`
	Message     string         `json:"message"`
}

// AccountResponse represents an account in API responses.
// The key hash and verification columns never leave the server.
type AccountResponse struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	KeyPrefix         string     `json:"key_prefix"`
	Tier              string     `json:"tier"`
	Verified          bool       `json:"verified"`
	PrivacyAccepted   bool       `json:"privacy_accepted"`
	PrivacyAcceptedAt *time.Time `json:"privacy_accepted_at,omitempty"`
	RequestsCount     int64      `json:"requests_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ExportResponse is the GDPR data export (Art. 15).
type ExportResponse struct {
	Account       *AccountResponse `json:"account"`
	Watches       []WatchResponse  `json:"watches"`
	PrivacyPolicy string           `json:"privacy_policy"`
	Message       string           `json:"message"`
}

// StatusResponse is a generic status-only response.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToAccountResponse converts an Account model to AccountResponse DTO.
func ToAccountResponse(acc *model.Account) *AccountResponse {
	return &AccountResponse{
		ID:                acc.ID,
		Email:             acc.Email,
		Name:              acc.Name,
		KeyPrefix:         acc.KeyPrefix,
		Tier:              string(acc.Tier),
		Verified:          acc.Verified,
		PrivacyAccepted:   acc.PrivacyAccepted,
		PrivacyAcceptedAt: acc.PrivacyAcceptedAt,
		RequestsCount:     acc.RequestsCount,
		CreatedAt:         acc.CreatedAt,
		UpdatedAt:         acc.UpdatedAt,
	}
}
