package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkravets/identity-core/internal/api"
	"github.com/mkravets/identity-core/internal/config"
)

// Define a custom type for context keys
type contextKey string

const (
	// AccountContextKey is the key used to store the account id in the context
	AccountContextKey contextKey = "account"
	// RoleContextKey is the key used to store the role in the context
	RoleContextKey contextKey = "role"
)

type AuthMiddleware struct {
	config *config.AuthConfig
}

func NewAuthMiddleware(config *config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

// Handler authenticates every request outside the public-endpoint set
// and stores the token subject and role in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.PublicEndpoints[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := validateToken(token, m.config.JWTSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, claims.Subject)
		ctx = context.WithValue(ctx, RoleContextKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	value := r.Header.Get("Authorization")
	if value == "" {
		return ""
	}
	return strings.TrimPrefix(value, "Bearer ")
}

// Helper function to get the account id from context
func GetAccountFromContext(ctx context.Context) (string, error) {
	accountID, ok := ctx.Value(AccountContextKey).(string)
	if !ok || accountID == "" {
		return "", errors.New("account not found in context")
	}
	return accountID, nil
}

// Helper function to get the role from context
func GetRoleFromContext(ctx context.Context) (string, error) {
	role, ok := ctx.Value(RoleContextKey).(string)
	if !ok || role == "" {
		return "", errors.New("role not found in context")
	}
	return role, nil
}

func validateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
