package initialize

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apnaghar/backend/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APNAGHAR_BACKEND_DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("APNAGHAR_BACKEND_MEDIA_LOCAL_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("APNAGHAR_BACKEND_LOG_LEVEL", "error")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuild_ServesHealthAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "pong" {
		t.Fatalf("healthz: %d %q", code, body)
	}
	if code, body := get("/"); code != http.StatusOK || !strings.Contains(body, "Available rooms") {
		t.Fatalf("home: %d", code)
	}
	code, body := get("/metrics")
	if code != http.StatusOK || !strings.Contains(body, `apnaghar_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`) {
		t.Fatalf("metrics missing request counter:\n%s", body)
	}
}

func TestBuild_ServesLocalUploads(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	if err := os.WriteFile(filepath.Join(cfg.Media.LocalDir, "abc_room.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/abc_room.jpg", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg" {
		t.Fatalf("uploads: %d %q", rec.Code, rec.Body.String())
	}
}

func TestBuild_RejectsUnknownMediaDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Media.Driver = "ftp"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown media driver")
	}
}
