package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const authUserIDKey contextKey = "authUserID"

// JWTAuthMiddleware validates HS256 Bearer tokens against the shared
// secret and injects the token subject into the request context. When
// devAuth is enabled or no secret is configured, requests pass through
// unauthenticated (local development).
func JWTAuthMiddleware(secret string, devAuth bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if devAuth || secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			sub, _ := claims.GetSubject()
			if sub == "" {
				writeError(w, http.StatusUnauthorized, "token missing subject")
				return
			}

			ctx := context.WithValue(r.Context(), authUserIDKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthUserIDFromContext extracts the authenticated user id from context.
// Empty when auth is bypassed.
func AuthUserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(authUserIDKey).(string)
	return v
}

// checkUser verifies the operated-on user matches the token subject.
// With auth bypassed there is no subject and every user is allowed.
func checkUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	sub := AuthUserIDFromContext(r.Context())
	if sub != "" && sub != userID {
		writeError(w, http.StatusUnauthorized, "token subject does not match userId")
		return false
	}
	return true
}
