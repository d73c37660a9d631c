package socket

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apnaghar/backend/app/events"
)

func TestHub_PublishDeliversToSubscribers(t *testing.T) {
	h := NewHub()
	id, ch := h.Register()
	defer h.Unregister(id)

	e := events.New(events.RoomUpdate, map[string]any{"msg": "New room added!"})
	if err := h.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case got := <-ch:
		if got.ID != e.ID {
			t.Fatalf("got event %q, want %q", got.ID, e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	id, ch := h.Register()
	defer h.Unregister(id)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = h.Publish(context.Background(), events.New(events.RoomUpdate, nil))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffer holds %d events, want %d", len(ch), subscriberBuffer)
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	id, ch := h.Register()
	h.Unregister(id)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("subscriber still registered")
	}
	// unknown ids are ignored
	h.Unregister("missing")
}

func TestHub_ServeHTTPStreamsEvents(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	e := events.New(events.RoomUpdate, map[string]any{"room_id": 7})
	_ = h.Publish(context.Background(), e)

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	if lines[0] != "id: "+e.ID || lines[1] != "event: room_update" || !strings.HasPrefix(lines[2], "data: {") {
		t.Fatalf("unexpected frame %q", lines)
	}
	if !strings.Contains(lines[2], `"room_id":7`) {
		t.Fatalf("payload missing from frame: %q", lines[2])
	}
}
