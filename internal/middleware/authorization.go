package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireStaff middleware ensures the caller holds the moderation capability
func RequireStaff(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity.IsAnonymous() {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.IsStaff {
				logger.Warn("Non-staff user attempted to access staff endpoint",
					zap.String("user_id", identity.UserID.String()),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "staff privileges required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
