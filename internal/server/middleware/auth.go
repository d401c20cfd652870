// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/types"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// callerKey is the context key for storing the authenticated caller.
const callerKey ContextKey = "caller"

// ErrUnknownUser is returned by a CallerResolver when the token subject no
// longer has a user record.
var ErrUnknownUser = errors.New("user no longer exists")

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// CallerResolver loads the live identity behind a token subject.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, userID uuid.UUID) (types.Caller, error)
}

// AuthMiddleware creates middleware that requires an Authorization bearer
// token, resolves its subject to a caller and adds it to the request context.
func AuthMiddleware(tokens TokenValidator, users CallerResolver) func(http.Handler) http.Handler {
	return authenticate(tokens, users, false)
}

// StreamAuthMiddleware is AuthMiddleware that also accepts the token in the
// "token" query parameter, for EventSource and WebSocket clients that cannot
// set headers.
func StreamAuthMiddleware(tokens TokenValidator, users CallerResolver) func(http.Handler) http.Handler {
	return authenticate(tokens, users, true)
}

func authenticate(tokens TokenValidator, users CallerResolver, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok && allowQuery {
				tokenString = strings.TrimSpace(r.URL.Query().Get("token"))
				ok = tokenString != ""
			}
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w, "Could not validate credentials")
				return
			}

			caller, err := users.ResolveCaller(r.Context(), claims.GetUserID())
			if errors.Is(err, ErrUnknownUser) {
				unauthorized(w, "Could not validate credentials")
				return
			}
			if err != nil {
				writeDetail(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// bearerToken extracts the token from a case-insensitive "Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail}) //nolint:errcheck
}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, caller types.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller extracts the authenticated caller from the request context.
func GetCaller(r *http.Request) (types.Caller, error) {
	caller, ok := r.Context().Value(callerKey).(types.Caller)
	if !ok {
		return types.Caller{}, fmt.Errorf("caller not found in request context")
	}
	return caller, nil
}
