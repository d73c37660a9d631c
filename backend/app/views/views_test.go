package views

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"apnaghar/backend/app/models"
	"apnaghar/backend/app/session"
)

func TestRenderer_EmbeddedPagesParse(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, p := range Pages {
		var sb strings.Builder
		if err := r.Render(&sb, p, Page{Room: &models.Room{ID: 1}}); err != nil {
			t.Errorf("render %s: %v", p, err)
		}
	}
	if err := r.Render(&strings.Builder{}, "missing.html", Page{}); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestRenderer_IndexShowsRoomsAndOwnerLinks(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	rooms := []models.Room{
		{ID: 7, OwnerID: 1, City: "Pune", Area: "Kothrud", Rent: 12000, Available: true, RoomImage: "https://media.test/a.jpg", WashroomImage: "b.jpg"},
		{ID: 8, OwnerID: 2, City: "Mumbai", Area: "<Andheri>", Rent: 9999.5, Available: true},
	}
	var sb strings.Builder
	err = r.Render(&sb, "index.html", Page{
		Flash: []string{"Room added successfully!"},
		User:  &session.Identity{UserID: 1, Username: "alice", Role: models.RoleOwner},
		Rooms: rooms,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{
		"Room added successfully!",
		"Kothrud, Pune",
		"₹12,000",
		"₹9,999.5",
		`src="https://media.test/a.jpg"`,
		`src="/uploads/b.jpg"`,
		`href="/edit_room/7"`,
		"&lt;Andheri&gt;",
		"alice (owner)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `href="/edit_room/8"`) {
		t.Error("edit link shown for a room owned by someone else")
	}
}

func TestFormatRentAndMediaURL(t *testing.T) {
	if got := FormatRent(1500000); got != "₹1,500,000" {
		t.Errorf("FormatRent = %q", got)
	}
	if got := MediaURL("http://x/y.png"); got != "http://x/y.png" {
		t.Errorf("MediaURL absolute = %q", got)
	}
	if got := MediaURL("abc_room.jpg"); got != "/uploads/abc_room.jpg" {
		t.Errorf("MediaURL local = %q", got)
	}
}

func copyTemplates(t *testing.T, dir string) {
	t.Helper()
	for _, name := range append([]string{layout}, Pages...) {
		b, err := embedded.ReadFile("templates/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRenderer_WatchReloadsDirectory(t *testing.T) {
	dir := t.TempDir()
	copyTemplates(t, dir)
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	page := `{{define "content"}}<p>maintenance window</p>{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "error.html"), []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		var sb strings.Builder
		if err := r.Render(&sb, "error.html", Page{}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(sb.String(), "maintenance window") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("template change not picked up")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRenderer_WatchNeedsDirectory(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Watch(context.Background()); err == nil {
		t.Fatal("expected error without a directory")
	}
}
