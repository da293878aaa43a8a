package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testOutbox = 256

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for %v", kind)
			}
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// noEvent drains whatever is queued and fails if an event of kind is found.
// Callers must first synchronize with the hub so that anything that would
// have been delivered is already queued.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

// countEvents drains queued events and counts those of kind.
func countEvents(ch <-chan *Event, kind EventKind) int {
	n := 0
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return n
			}
			if ev != nil && ev.Kind == kind {
				n++
			}
		default:
			return n
		}
	}
}

func mustClose(t *testing.T, ch <-chan *Event) {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("expected events channel to be closed")
		}
	}
}

func startHub(t *testing.T, promptTimeout time.Duration) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, promptTimeout)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func join(t *testing.T, hub *Hub, name string) *Client {
	t.Helper()

	c := NewClient(name+"-id", testOutbox)
	require.NoError(t, hub.Register(context.Background(), c, name))
	mustEvent(t, c.Events, EventWelcome)
	return c
}

func say(t *testing.T, hub *Hub, c *Client, line string) {
	t.Helper()
	require.NoError(t, hub.HandleLine(c, line))
}

// barrier waits until every request posted before it has been applied.
func barrier(t *testing.T, hub *Hub) Snapshot {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := hub.Snapshot(ctx)
	require.NoError(t, err)
	return snap
}

func groupOf(t *testing.T, hub *Hub, name string) (GroupSnapshot, bool) {
	t.Helper()

	for _, g := range barrier(t, hub).Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupSnapshot{}, false
}
