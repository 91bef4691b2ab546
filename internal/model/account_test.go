package model

import "testing"

func TestLimitsForTier(t *testing.T) {
	testCases := []struct {
		name            string
		tier            string
		wantMaxWatches  int
		wantIntervalMin int
	}{
		{
			name:            "free tier",
			tier:            TierFree,
			wantMaxWatches:  3,
			wantIntervalMin: 86400,
		},
		{
			name:            "starter tier",
			tier:            TierStarter,
			wantMaxWatches:  10,
			wantIntervalMin: 3600,
		},
		{
			name:            "pro tier",
			tier:            TierPro,
			wantMaxWatches:  50,
			wantIntervalMin: 300,
		},
		{
			name:            "business tier",
			tier:            TierBusiness,
			wantMaxWatches:  1000,
			wantIntervalMin: 60,
		},
		{
			name:            "unknown tier falls back to free",
			tier:            "enterprise-gold",
			wantMaxWatches:  3,
			wantIntervalMin: 86400,
		},
		{
			name:            "empty tier falls back to free",
			tier:            "",
			wantMaxWatches:  3,
			wantIntervalMin: 86400,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limits := LimitsForTier(tc.tier)
			if limits.MaxWatches != tc.wantMaxWatches {
				t.Errorf("MaxWatches = %d, want %d", limits.MaxWatches, tc.wantMaxWatches)
			}
			if limits.CheckIntervalMin != tc.wantIntervalMin {
				t.Errorf("CheckIntervalMin = %d, want %d", limits.CheckIntervalMin, tc.wantIntervalMin)
			}
		})
	}
}

func TestAccountLimits(t *testing.T) {
	acc := &Account{Tier: TierStarter}
	if got := acc.Limits().MaxWatches; got != 10 {
		t.Errorf("Limits().MaxWatches = %d, want 10", got)
	}
}

func TestVerificationPending(t *testing.T) {
	hash := "abc123"

	testCases := []struct {
		name    string
		account Account
		want    bool
	}{
		{
			name:    "unverified with code",
			account: Account{Verified: false, VerificationHash: &hash},
			want:    true,
		},
		{
			name:    "unverified without code",
			account: Account{Verified: false},
			want:    false,
		},
		{
			name:    "verified",
			account: Account{Verified: true, VerificationHash: &hash},
			want:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.account.VerificationPending(); got != tc.want {
				t.Errorf("VerificationPending() = %v, want %v", got, tc.want)
			}
		})
	}
}
