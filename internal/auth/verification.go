package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// VerificationCodeTTL is how long an issued code stays valid.
const VerificationCodeTTL = 24 * time.Hour

// codeRange covers the 6-digit space 100000-999999.
var codeRange = big.NewInt(900000)

// GeneratedCode contains a newly issued verification code.
type GeneratedCode struct {
	Plaintext string    // 6-digit code sent by email
	Hash      string    // SHA-256 hex for storage
	ExpiresAt time.Time
}

// GenerateVerificationCode issues a single-use 6-digit numeric code.
// Only the hash is persisted; the plaintext goes out by email.
func GenerateVerificationCode() (*GeneratedCode, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+100000)

	return &GeneratedCode{
		Plaintext: code,
		Hash:      HashVerificationCode(code),
		ExpiresAt: time.Now().UTC().Add(VerificationCodeTTL),
	}, nil
}

// HashVerificationCode returns the SHA-256 hex digest of a code.
func HashVerificationCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyCode checks a submitted code against the stored hash.
// Comparison is constant-time to avoid leaking digit matches.
func VerifyCode(submitted, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	submittedHash := HashVerificationCode(submitted)
	return subtle.ConstantTimeCompare([]byte(submittedHash), []byte(storedHash)) == 1
}
