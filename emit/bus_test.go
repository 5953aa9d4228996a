package emit_test

import (
	"testing"
	"time"

	"github.com/sipsyai/flowengine/emit"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	b := emit.NewBus(4)
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Emit(emit.Update{Type: emit.ExecutionStarted, ExecutionID: "e1"})

	select {
	case u := <-ch:
		if u.Type != emit.ExecutionStarted || u.ExecutionID != "e1" {
			t.Fatalf("got unexpected update: %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestBusFansOutToMultipleSubscribers(t *testing.T) {
	b := emit.NewBus(4)
	ch1, unsub1 := b.Subscribe()
	ch2, unsub2 := b.Subscribe()
	defer unsub1()
	defer unsub2()

	b.Emit(emit.Update{Type: emit.NodeStarted, NodeID: "n1"})

	for _, ch := range []<-chan emit.Update{ch1, ch2} {
		select {
		case u := <-ch:
			if u.NodeID != "n1" {
				t.Fatalf("got %+v", u)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out update")
		}
	}
}

// TestBusDropsOldestWhenFull verifies the drop-oldest, non-blocking
// publish policy: Emit must never block even when a subscriber's
// buffer is saturated, and the most recent update must survive.
func TestBusDropsOldestWhenFull(t *testing.T) {
	b := emit.NewBus(2)
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit(emit.Update{Type: emit.LogUpdate, NodeID: string(rune('a' + i))})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber channel")
	}

	var last emit.Update
	for {
		select {
		case u := <-ch:
			last = u
		default:
			goto drained
		}
	}
drained:
	if last.NodeID != string(rune('a'+9)) {
		t.Fatalf("expected the most recent update to survive, got %+v", last)
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := emit.NewBus(4)
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	_, ok := <-ch
	if ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}
