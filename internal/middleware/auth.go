package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey contextKey = "userID"

// SuperuserKey is the context key for the authenticated user's superuser flag.
const SuperuserKey contextKey = "superuser"

// ErrUnknownAccount is returned by an AccountLookup when the token subject
// no longer exists.
var ErrUnknownAccount = errors.New("unknown account")

// Account is the part of a user record the auth middleware needs.
type Account struct {
	ID          string
	IsActive    bool
	IsSuperuser bool
}

// TokenParser validates a bearer token and returns its subject.
type TokenParser interface {
	ParseAccessToken(token string) (string, error)
}

// AccountLookup loads the account behind a token subject.
type AccountLookup interface {
	Account(ctx context.Context, id string) (Account, error)
}

// RequireAuth returns middleware that validates a Bearer JWT, loads the active
// account it refers to and injects the user into the request context.
func RequireAuth(tokens TokenParser, accounts AccountLookup, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			userID, err := tokens.ParseAccessToken(parts[1])
			if err != nil {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			acc, err := accounts.Account(r.Context(), userID)
			if errors.Is(err, ErrUnknownAccount) {
				response.Unauthorized(w, "invalid or expired token")
				return
			}
			if err != nil {
				log.Error("load account", "user_id", userID, "request_id", chiMiddleware.GetReqID(r.Context()), "err", err)
				response.InternalError(w)
				return
			}
			if !acc.IsActive {
				response.Unauthorized(w, "inactive user")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, acc.ID)
			ctx = context.WithValue(ctx, SuperuserKey, acc.IsSuperuser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user's ID from ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// IsSuperuser reports whether the authenticated user is a superuser.
func IsSuperuser(ctx context.Context) bool {
	su, _ := ctx.Value(SuperuserKey).(bool)
	return su
}
