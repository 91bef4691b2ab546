// Package model defines domain entities for the application.
package model

import "time"

// Tier constants. Tiers form a closed enumeration; quota and
// interval-floor changes happen in TierLimitsTable, not in enforcement code.
const (
	TierFree     = "free"
	TierStarter  = "starter"
	TierPro      = "pro"
	TierBusiness = "business"
)

// TierLimits defines resource ceilings per tier.
type TierLimits struct {
	MaxWatches       int
	CheckIntervalMin int // seconds
}

// TierLimitsTable maps tier names to their limits.
var TierLimitsTable = map[string]TierLimits{
	TierFree:     {MaxWatches: 3, CheckIntervalMin: 86400},
	TierStarter:  {MaxWatches: 10, CheckIntervalMin: 3600},
	TierPro:      {MaxWatches: 50, CheckIntervalMin: 300},
	TierBusiness: {MaxWatches: 1000, CheckIntervalMin: 60},
}

// LimitsForTier returns the limits for a tier, defaulting to free
// for unknown tier names.
func LimitsForTier(tier string) TierLimits {
	if limits, ok := TierLimitsTable[tier]; ok {
		return limits
	}
	return TierLimitsTable[TierFree]
}

// Account represents a registered tenant.
// The API key is stored hashed; the plaintext is returned once at registration.
type Account struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	KeyHash           string     `json:"-"` // Never serialize
	KeyPrefix         string     `json:"key_prefix"`
	Tier              string     `json:"tier"`
	Verified          bool       `json:"verified"`
	VerificationHash  *string    `json:"-"` // SHA-256 of the pending code
	VerificationExp   *time.Time `json:"-"`
	PrivacyAccepted   bool       `json:"privacy_accepted"`
	PrivacyAcceptedAt *time.Time `json:"privacy_accepted_at,omitempty"`
	RequestsCount     int64      `json:"requests_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Limits returns the tier limits for this account.
func (a *Account) Limits() TierLimits {
	return LimitsForTier(a.Tier)
}

// VerificationPending reports whether an unconsumed verification code exists.
func (a *Account) VerificationPending() bool {
	return !a.Verified && a.VerificationHash != nil
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	AccountID string
	KeyPrefix string
	Email     string
	Tier      string
	Verified  bool
}

// Limits returns the tier limits for the authenticated account.
func (a *AuthContext) Limits() TierLimits {
	return LimitsForTier(a.Tier)
}
