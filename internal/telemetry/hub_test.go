package telemetry

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

// runHub starts a hub loop and returns a stop function that waits for it.
func runHub(t *testing.T, hub *Hub) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stop := runHub(t, hub)
	defer stop()

	c := newClient(hub, nil, "test:1", 4)
	hub.register <- c
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.unregister <- c
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("send channel yielded a frame instead of closing")
		}
	case <-time.After(time.Second):
		t.Fatalf("send channel not closed on unregister")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stop := runHub(t, hub)

	c := newClient(hub, nil, "test:1", 4)
	hub.register <- c
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	stop()
	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("ClientCount = %d after shutdown", n)
	}
	if _, ok := <-c.send; ok {
		t.Fatalf("send channel still open after shutdown")
	}
}

func TestBroadcastFansOut(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stop := runHub(t, hub)
	defer stop()

	a := newClient(hub, nil, "a:1", 4)
	b := newClient(hub, nil, "b:1", 4)
	hub.register <- a
	hub.register <- b
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast([]byte("frame"))
	if len(a.send) != 1 || len(b.send) != 1 {
		t.Fatalf("frames queued = %d/%d, want 1/1", len(a.send), len(b.send))
	}

	b.setWatch(WatchMsg{X: 10, Y: 20, Radius: 99})
	watches := hub.Watches()
	if len(watches) != 2 {
		t.Fatalf("Watches() = %d entries, want 2", len(watches))
	}
	narrowed := 0
	for _, w := range watches {
		if w.Narrow {
			narrowed++
			if w.Watch.Radius != 99 {
				t.Fatalf("narrowed watch = %+v", w.Watch)
			}
		}
	}
	if narrowed != 1 {
		t.Fatalf("narrowed clients = %d, want 1", narrowed)
	}
}

func TestClientSendDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient(hub, nil, "test:1", 2)

	c.Send([]byte("a"))
	c.Send([]byte("b"))
	c.Send([]byte("c")) // queue full: dropped, never blocks
	if n := len(c.send); n != 2 {
		t.Fatalf("queued frames = %d, want 2", n)
	}
	if first := <-c.send; string(first) != "a" {
		t.Fatalf("queue reordered: got %q first", first)
	}

	// Racing a close must not panic the caller.
	close(c.send)
	c.Send([]byte("d"))
}

func TestClientWatchLifecycle(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newClient(hub, nil, "test:1", 4)

	if _, narrow := c.watchRegion(); narrow {
		t.Fatalf("fresh client starts narrowed")
	}

	c.handleMessage(encodeMsg(t, MsgWatch, WatchMsg{X: 100, Y: 200, Radius: 50}))
	w, narrow := c.watchRegion()
	if !narrow || w.X != 100 || w.Y != 200 || w.Radius != 50 {
		t.Fatalf("watch not applied: %+v narrow=%v", w, narrow)
	}

	// Garbage input leaves the watch untouched.
	c.handleMessage([]byte{0xc1})
	if _, narrow := c.watchRegion(); !narrow {
		t.Fatalf("garbage message cleared the watch")
	}

	// Zero radius reads as unwatch.
	c.handleMessage(encodeMsg(t, MsgWatch, WatchMsg{X: 1, Y: 2, Radius: 0}))
	if _, narrow := c.watchRegion(); narrow {
		t.Fatalf("zero-radius watch should clear narrowing")
	}

	c.handleMessage(encodeMsg(t, MsgWatch, WatchMsg{X: 5, Y: 5, Radius: 10}))
	c.handleMessage(encodeMsg(t, MsgUnwatch, nil))
	if _, narrow := c.watchRegion(); narrow {
		t.Fatalf("unwatch did not clear narrowing")
	}
}

func encodeMsg(t *testing.T, typ string, data interface{}) []byte {
	t.Helper()
	raw, err := Encode(typ, data)
	if err != nil {
		t.Fatalf("Encode(%s): %v", typ, err)
	}
	return raw
}
