package hub

import (
	"context"
	"testing"
	"time"
)

func TestClientReply_DeliversToOwnQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test")
	go h.Run(ctx)

	c := NewClient(h, nil)

	// Registration finishes on the hub goroutine just after NewClient
	// returns; wait for it before replying
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the client to register")
		}
		time.Sleep(time.Millisecond)
	}

	c.Reply(NewJSONMessage([]byte(`{"a":1}`)))

	select {
	case msg := <-c.send:
		if msg.Type != JSONMessage || string(msg.Data) != `{"a":1}` {
			t.Errorf("Expected the queued reply back, got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a message on the client queue")
	}
}

func TestClientReply_NoopAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New("test")
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := NewClient(h, nil)
	cancel()
	<-done

	// The hub closed the client queue on shutdown; a late reply must
	// drop instead of hitting the closed channel
	c.Reply(NewJSONMessage([]byte("late")))
}
