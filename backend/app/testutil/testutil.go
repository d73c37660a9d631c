// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"apnaghar/backend/app/db"
	"apnaghar/backend/app/events"
	"apnaghar/backend/app/media"

	"gorm.io/gorm"
)

var dbSeq atomic.Int64

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

// OpenDB opens a migrated in-memory SQLite database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("%s_%d", nonWord.ReplaceAllString(t.Name(), "_"), dbSeq.Add(1))
	gdb, err := db.Connect(db.Config{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("raw test db: %v", err)
	}
	// shared-cache memory databases report table locks instead of waiting
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// FakeMedia is an in-memory media.Store. FailOn makes the n-th Store call
// (1-based) fail.
type FakeMedia struct {
	mu      sync.Mutex
	calls   int
	objects map[string][]byte
	FailOn  int
	Removed []string
}

func NewFakeMedia() *FakeMedia { return &FakeMedia{objects: make(map[string][]byte)} }

func (f *FakeMedia) Store(_ context.Context, r io.Reader, filenameHint string) (media.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.FailOn == f.calls {
		return media.Object{}, errors.New("media service unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return media.Object{}, err
	}
	key := fmt.Sprintf("obj-%d-%s", f.calls, media.SecureFilename(filenameHint))
	f.objects[key] = body
	return media.Object{Ref: "https://media.test/" + key, Key: key}, nil
}

func (f *FakeMedia) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.Removed = append(f.Removed, key)
	return nil
}

// Stored returns the number of objects currently held.
func (f *FakeMedia) Stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// Recorder is an events.Publisher remembering what it saw.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}
