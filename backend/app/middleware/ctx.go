package middleware

import (
	"context"

	"apnaghar/backend/app/session"
)

// GetIdentity returns the identity Identify stored in ctx, or nil.
func GetIdentity(ctx context.Context) *session.Identity {
	if v := ctx.Value(identityKey); v != nil {
		if ident, ok := v.(*session.Identity); ok {
			return ident
		}
	}
	return nil
}
