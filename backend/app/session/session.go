// Package session keeps authenticated identities server-side. Clients only
// hold a signed token naming the session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtutil "apnaghar/backend/app/jwt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Identity is what a request is authenticated as.
type Identity struct {
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, ident Identity, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Identity, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	signer *jwtutil.Signer
}

func NewManager(store Store, signer *jwtutil.Signer) *Manager {
	return &Manager{store: store, signer: signer}
}

// Issue stores ident under a fresh session id and returns the token for it.
func (m *Manager) Issue(ctx context.Context, ident Identity) (string, time.Time, *Identity, error) {
	ident.SessionID = uuid.NewString()
	ident.CreatedAt = time.Now().UTC()
	if err := m.store.Save(ctx, ident, m.signer.TTL); err != nil {
		return "", time.Time{}, nil, fmt.Errorf("save session: %w", err)
	}
	token, exp, err := m.signer.Sign(ident.SessionID)
	if err != nil {
		_ = m.store.Delete(ctx, ident.SessionID)
		return "", time.Time{}, nil, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, &ident, nil
}

// Resolve returns the live identity behind token, or ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := m.signer.Parse(token)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.store.Load(ctx, claims.SessionID())
}

// Revoke deletes the session behind token. Invalid tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.signer.Parse(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.SessionID())
}
