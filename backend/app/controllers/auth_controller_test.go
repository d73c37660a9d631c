package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtutil "apnaghar/backend/app/jwt"
	"apnaghar/backend/app/middleware"
	"apnaghar/backend/app/models"
	"apnaghar/backend/app/repo"
	"apnaghar/backend/app/services"
	"apnaghar/backend/app/session"
	"apnaghar/backend/app/testutil"
	"apnaghar/backend/app/views"
)

// downStore keeps sessions but cannot delete them, as a store that went
// away mid-request.
type downStore struct{ *session.MemoryStore }

func (downStore) Delete(context.Context, string) error { return errors.New("connection refused") }

func TestAuthController_LogoutClearsCookieWhenRevokeFails(t *testing.T) {
	renderer, err := views.New("")
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager(downStore{session.NewMemoryStore()},
		&jwtutil.Signer{Secret: []byte("test"), Issuer: "apnaghar", TTL: time.Hour})
	auth := services.NewAuthService(repo.NewUserRepository(testutil.OpenDB(t)), sessions)
	pages := &Pages{Views: renderer}
	guard := &middleware.Auth{Sessions: sessions, CookieName: "apnaghar_session"}
	c := NewAuthController(auth, guard, pages)

	token, _, _, err := sessions.Issue(context.Background(), session.Identity{UserID: 1, Username: "alice", Role: models.RoleOwner})
	if err != nil {
		t.Fatal(err)
	}

	for _, accept := range []string{"text/html", "application/json"} {
		t.Run(accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/logout", nil)
			req.Header.Set("Accept", accept)
			req.AddCookie(&http.Cookie{Name: "apnaghar_session", Value: token})
			rec := httptest.NewRecorder()
			c.Logout(rec, req)

			want := http.StatusSeeOther
			if accept == "application/json" {
				want = http.StatusOK
			}
			if rec.Code != want {
				t.Fatalf("status %d, want %d: %s", rec.Code, want, rec.Body.String())
			}
			var cleared bool
			for _, ck := range rec.Result().Cookies() {
				if ck.Name == "apnaghar_session" && ck.MaxAge < 0 && ck.Value == "" {
					cleared = true
				}
			}
			if !cleared {
				t.Fatalf("session cookie not expired: %v", rec.Header().Values("Set-Cookie"))
			}
		})
	}
}
