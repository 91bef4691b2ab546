package middleware

import (
	"net/http"

	"github.com/arkforge/arkwatch/internal/auth"
)

// RequireVerified returns middleware that blocks accounts that have not
// completed email verification. Must be applied after Auth middleware.
func RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeVerifiedError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			if !authCtx.Verified {
				writeVerifiedError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED",
					"Email not verified. Check your inbox for the verification code and call /api/v1/auth/verify-email.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeVerifiedError writes a verification-related error response.
func writeVerifiedError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
