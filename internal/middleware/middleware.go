package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/skolos/debt-service/internal/config"
)

type contextKey string

// creditorIDKey carries the authenticated creditor's id through the request
// context.
const creditorIDKey contextKey = "creditorID"

// AuthMiddleware validates the bearer token and stores the creditor
// identity in the request context.
func AuthMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), creditorIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CreditorIDFromContext extracts the authenticated creditor id
func CreditorIDFromContext(ctx context.Context) (int64, error) {
	subject, ok := ctx.Value(creditorIDKey).(string)
	if !ok || subject == "" {
		return 0, fmt.Errorf("creditor ID not found in context")
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid creditor ID: %w", err)
	}
	return id, nil
}
