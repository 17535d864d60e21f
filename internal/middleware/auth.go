package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thorplatform/payout-service/internal/config"
)

type contextKey string

// Context keys populated by AuthMiddleware.
const (
	UserIDKey    contextKey = "userID"
	TenantIDKey  contextKey = "tenantID"
	ProfileIDKey contextKey = "profileID"
)

// AuthMiddleware validates the Bearer token and threads the authenticated
// user, tenant and profile ids through the request context.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Missing or invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			userID, err := strconv.ParseInt(sub, 10, 64)
			if err != nil {
				http.Error(w, "Invalid token subject", http.StatusUnauthorized)
				return
			}
			tenantID, ok := numericClaim(claims, "tenant_id")
			if !ok {
				http.Error(w, "Missing tenant claim", http.StatusUnauthorized)
				return
			}
			profileID, ok := numericClaim(claims, "profile_id")
			if !ok {
				http.Error(w, "Missing profile claim", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, TenantIDKey, tenantID)
			ctx = context.WithValue(ctx, ProfileIDKey, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// numericClaim reads an int64 claim; JSON numbers decode as float64.
func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	v, ok := claims[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// UserID returns the authenticated user id from the request context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// TenantID returns the authenticated tenant id from the request context.
func TenantID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TenantIDKey).(int64)
	return id, ok
}

// ProfileID returns the authenticated profile id from the request context.
func ProfileID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ProfileIDKey).(int64)
	return id, ok
}
