package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/auth"
)

type contextKey string

const userContextKey contextKey = "current_user"

// CurrentUser returns the authenticated user stored in the request context,
// or nil for anonymous requests.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// WithUser returns a context carrying user as the authenticated caller.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CallerID returns a pointer to the authenticated user's id, or nil for
// anonymous requests. Repositories take it to resolve viewer-specific flags.
func CallerID(ctx context.Context) *int64 {
	user := CurrentUser(ctx)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func resolveUser(r *http.Request, tokens *auth.JWTManager, users domain.UserRepository) *domain.User {
	token := bearerToken(r)
	if token == "" {
		return nil
	}

	userID, err := tokens.Validate(token)
	if err != nil {
		return nil
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		return nil
	}

	return user
}

// Authenticate requires a valid bearer token and stores the authenticated
// user in the request context.
func Authenticate(tokens *auth.JWTManager, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, tokens, users)
			if user == nil {
				response.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth resolves a bearer token when present but lets anonymous
// requests through. Invalid tokens read as anonymous rather than failing.
func OptionalAuth(tokens *auth.JWTManager, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, tokens, users); user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects authenticated callers without the admin role.
// It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil {
			response.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin() {
			response.Error(w, http.StatusForbidden, "operation not permitted")
			return
		}
		next.ServeHTTP(w, r)
	})
}
