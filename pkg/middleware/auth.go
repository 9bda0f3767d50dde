package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/response"
)

// Identity is the authenticated caller, as loaded from the users table.
type Identity struct {
	ID       uint
	Username string
	Admin    bool
}

// IdentityLoader resolves a token's user id to a current identity. It
// returns an apperror.NotFound when the user no longer exists.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID uint) (Identity, error)
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the identity set by Guard.Authenticate.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Guard verifies bearer access tokens.
type Guard struct {
	tokens *auth.Tokens
	users  IdentityLoader
}

// NewGuard returns a Guard using tokens to verify and users to load.
func NewGuard(tokens *auth.Tokens, users IdentityLoader) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate rejects the request with 401 unless it carries a valid
// access token for a user that still exists. A failed user lookup is a 500.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := g.tokens.VerifyAccess(token)
		if err != nil {
			logger.WithCtx(r.Context()).Debug("auth: token rejected", "error", err)
			response.Unauthorized(w)
			return
		}

		id, err := g.users.LoadIdentity(r.Context(), claims.ID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			logger.WithCtx(r.Context()).Debug("auth: user gone", "user_id", claims.ID)
			response.Unauthorized(w)
			return
		case err != nil:
			logger.WithCtx(r.Context()).Error("auth: user lookup failed", "user_id", claims.ID, "error", err)
			response.InternalServerError(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
