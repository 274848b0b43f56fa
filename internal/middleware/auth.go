package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"beerfinder/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	UserIDKey   contextKey = "user_id"
)

type authFailure struct {
	message string
}

// authenticate resolves the caller from the Authorization header. ok is false
// when no header is present; failure is set when a header is present but
// unusable.
func authenticate(r *http.Request, jwtSecret string, logger *zap.Logger) (identity domain.Identity, ok bool, failure *authFailure) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.Anonymous, false, nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Debug("Invalid authorization header format")
		return domain.Anonymous, true, &authFailure{"invalid authorization header format"}
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		logger.Debug("Token validation failed", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Anonymous, true, &authFailure{"token expired"}
		}
		return domain.Anonymous, true, &authFailure{"invalid token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Anonymous, true, &authFailure{"invalid token claims"}
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		logger.Debug("Missing or malformed user_id in token claims")
		return domain.Anonymous, true, &authFailure{"invalid token claims"}
	}

	role, _ := claims["role"].(string)
	return domain.Identity{UserID: userID, IsStaff: role == domain.RoleStaff}, true, nil
}

func withIdentity(ctx context.Context, identity domain.Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, identity)
	return context.WithValue(ctx, UserIDKey, identity.UserID.String())
}

// AuthMiddleware requires a valid bearer token and stores the caller identity
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, present, failure := authenticate(r, jwtSecret, logger)
			if !present {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			if failure != nil {
				RespondWithError(w, http.StatusUnauthorized, failure.message)
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", identity.UserID.String()),
				zap.Bool("is_staff", identity.IsStaff),
			)
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuthMiddleware lets requests without a token through as anonymous.
// A token that is present but invalid is still rejected.
func OptionalAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, present, failure := authenticate(r, jwtSecret, logger)
			if failure != nil {
				RespondWithError(w, http.StatusUnauthorized, failure.message)
				return
			}
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// GetIdentity returns the caller identity, anonymous when none was stored
func GetIdentity(ctx context.Context) domain.Identity {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	if !ok {
		return domain.Anonymous
	}
	return identity
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
