package service

import "errors"

// Service errors. Handlers translate these into HTTP statuses; anything
// else surfaces as a generic server error with no internal detail.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("name must be 2-100 characters")
	ErrPrivacyNotAccepted = errors.New("privacy policy must be accepted")
	ErrEmailExists        = errors.New("email already registered")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoFields           = errors.New("no fields to update")
	ErrInvalidURL         = errors.New("invalid watch URL")
	ErrInvalidWatchName   = errors.New("watch name is required")
	ErrInvalidStatus      = errors.New("invalid watch status")
	ErrWatchNotFound      = errors.New("watch not found")
	ErrQuotaExceeded      = errors.New("watch quota exceeded for tier")
)
