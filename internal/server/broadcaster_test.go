package server

import (
	"encoding/json"
	"testing"
)

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	c1 := NewConn("p1", 1, func() {})
	c2 := NewConn("p1", 1, func() {})

	r.Register(c1)
	r.Register(c2)
	if r.Len() != 2 {
		t.Fatalf("got %d connections, want 2", r.Len())
	}

	r.Unregister(c1)
	r.Unregister(c1) // idempotent
	if r.Len() != 1 {
		t.Fatalf("got %d connections after unregister, want 1", r.Len())
	}

	snap := r.Snapshot()
	if len(snap) != 1 || snap[0] != c2 {
		t.Fatalf("snapshot does not contain the remaining connection")
	}
}

func TestPublishFansOut(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r, discardLogger())

	c1 := NewConn("p1", 4, func() {})
	c2 := NewConn("p2", 4, func() {})
	r.Register(c1)
	r.Register(c2)

	b.Publish(FoundEvent{
		Type:                   "cache.found",
		SpotID:                 "s1",
		SpotName:               "Old Harbour Bell",
		ParticipantDisplayName: "Maria",
		FoundAt:                "2026-08-30T12:00:00.000Z",
	})

	for _, c := range []*Conn{c1, c2} {
		select {
		case data := <-c.Events():
			var ev FoundEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if ev.Type != "cache.found" || ev.SpotName != "Old Harbour Bell" {
				t.Errorf("unexpected event %+v", ev)
			}
		default:
			t.Fatalf("connection %s received nothing", c.ParticipantID)
		}
	}
}

// A connection whose queue is full must not stall delivery to the others; it
// gets dropped and closed instead.
func TestPublishDropsSlowConnection(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r, discardLogger())

	closed := false
	slow := NewConn("slow", 1, func() { closed = true })
	fast := NewConn("fast", 4, func() { t.Error("fast connection closed") })
	r.Register(slow)
	r.Register(fast)

	// First publish fills slow's single-slot queue; the second overflows it.
	b.Publish(FoundEvent{Type: "cache.found", SpotID: "s1"})
	b.Publish(FoundEvent{Type: "cache.found", SpotID: "s2"})

	if !closed {
		t.Error("slow connection was not closed")
	}
	if r.Len() != 1 {
		t.Errorf("got %d registered connections, want 1", r.Len())
	}
	if len(fast.Events()) != 2 {
		t.Errorf("fast connection has %d queued events, want 2", len(fast.Events()))
	}
}

func TestPublishToEmptyRegistry(t *testing.T) {
	b := NewBroadcaster(NewRegistry(), discardLogger())
	b.Publish(FoundEvent{Type: "cache.found"}) // must not panic
}
