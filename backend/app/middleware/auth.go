package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"apnaghar/backend/app/session"
	"apnaghar/backend/global"
)

type ctxKey int

const identityKey ctxKey = 1

// Auth resolves the session token carried by a request. The token comes from
// the session cookie or an "Authorization: Bearer" header.
type Auth struct {
	Sessions   *session.Manager
	CookieName string
	// OnUnauthenticated answers requests rejected by RequireAuth. When nil a
	// bare 401 is written.
	OnUnauthenticated http.HandlerFunc
}

// Token extracts the raw session token from r, or "".
func (a *Auth) Token(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if a.CookieName != "" {
		if c, err := r.Cookie(a.CookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

// Identify attaches the identity of a live session to the request context.
// Anonymous requests pass through unchanged.
func (a *Auth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.Token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ident, err := a.Sessions.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				global.Logger.Warn().Err(err).Msg("session lookup failed")
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

// RequireAuth rejects requests without a live session.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return a.Identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			if a.OnUnauthenticated != nil {
				a.OnUnauthenticated(w, r)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func WithIdentity(ctx context.Context, ident *session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
