package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtutil "apnaghar/backend/app/jwt"
	"apnaghar/backend/app/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func newAuth(t *testing.T) (*Auth, string) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), &jwtutil.Signer{Secret: []byte("k"), Issuer: "apnaghar", TTL: time.Hour})
	token, _, _, err := mgr.Issue(context.Background(), session.Identity{UserID: 3, Username: "alice", Role: "owner"})
	if err != nil {
		t.Fatal(err)
	}
	return &Auth{Sessions: mgr, CookieName: "apnaghar_session"}, token
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if ident := GetIdentity(r.Context()); ident != nil {
		_, _ = w.Write([]byte(ident.Username))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestAuth_IdentifyFromCookieAndBearer(t *testing.T) {
	a, token := newAuth(t)
	h := a.Identify(http.HandlerFunc(whoami))

	cases := []struct {
		name string
		set  func(*http.Request)
		want string
	}{
		{"none", func(*http.Request) {}, "anonymous"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "apnaghar_session", Value: token}) }, "alice"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "alice"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "anonymous"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.set(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAuth_RequireAuth(t *testing.T) {
	a, token := newAuth(t)
	h := a.RequireAuth(http.HandlerFunc(whoami))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d", rec.Code)
	}

	a.OnUnauthenticated = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("custom rejection not used: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "alice" {
		t.Fatalf("authenticated: %d %q", rec.Code, rec.Body.String())
	}

	// revoked sessions no longer pass
	if err := a.Sessions.Revoke(context.Background(), token); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("revoked session accepted: %d", rec.Code)
	}
}

func TestMetrics_CountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := Logging(m.Handler(WithRoute("GET /rooms/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms/1", nil))
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET /rooms/{id}", "GET", "418")); got != 3 {
		t.Fatalf("counter = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Fatalf("histogram series = %d, want 1", n)
	}
}

func TestStatusWriter_SupportsFlush(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush through wrapper: %v", err)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewClientLimiter(rate.Every(time.Hour), 2), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	send := func(remote string) string {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		h.ServeHTTP(rec, req)
		return http.StatusText(rec.Code)
	}

	codes := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, send(fmt.Sprintf("203.0.113.7:%d", 40000+i)))
	}
	if strings.Join(codes, ",") != "OK,OK,Too Many Requests" {
		t.Fatalf("unexpected statuses %v", codes)
	}
	// another client keeps its own allowance
	if got := send("198.51.100.2:5555"); got != "OK" {
		t.Fatalf("second client got %q", got)
	}
}
