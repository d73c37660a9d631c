package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"apnaghar/backend/app/models"
	"apnaghar/backend/app/repo"
	"apnaghar/backend/app/session"

	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Identity *session.Identity
	Token    string
	Expires  time.Time
}

type AuthService struct {
	users    *repo.UserRepository
	sessions *session.Manager
	// HashCost is the bcrypt cost used for new passwords.
	HashCost  int
	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users *repo.UserRepository, sessions *session.Manager) *AuthService {
	return &AuthService{users: users, sessions: sessions, HashCost: bcrypt.DefaultCost}
}

// Register creates a user. A taken username is reported by the store's
// unique index as ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: in.Username, PasswordHash: string(hash), Role: in.Role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, in.Username)
		}
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		// keep the timing of unknown users close to that of wrong passwords
		_ = bcrypt.CompareHashAndPassword(s.fakeHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	token, exp, ident, err := s.sessions.Issue(ctx, session.Identity{UserID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Identity: ident, Token: token, Expires: exp}, nil
}

// Logout clears the session behind token; unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *AuthService) fakeHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("apnaghar-placeholder"), s.HashCost)
	})
	return s.dummyHash
}

// RequireRole gates an action on the session's role.
func RequireRole(ident *session.Identity, role string) (*session.Identity, error) {
	if ident == nil {
		return nil, ErrUnauthenticated
	}
	if ident.Role != role {
		return nil, fmt.Errorf("%w: %s role required", ErrForbidden, role)
	}
	return ident, nil
}

// RequireOwner passes only the owner account that created room.
func RequireOwner(ident *session.Identity, room *models.Room) (*session.Identity, error) {
	if _, err := RequireRole(ident, models.RoleOwner); err != nil {
		return nil, err
	}
	if room == nil || room.OwnerID != ident.UserID {
		return nil, ErrForbidden
	}
	return ident, nil
}
