package emit

import "sync"

// Bus is a many-writer, many-reader, non-blocking broadcast of
// Updates on the process-wide "execution-update" topic (spec.md §4.E).
// Each subscriber gets its own bounded channel; when a slow subscriber
// can't keep up, the oldest buffered update is dropped to make room
// rather than blocking the publisher — the producer (the Flow Engine)
// must never stall waiting on a consumer.
//
// Adapted from graph/scheduler.go's Frontier, which bounds a channel
// and blocks the producer on backpressure; here the policy is
// inverted to drop-oldest since publication must stay non-blocking.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Update
	nextID int
	cap    int
}

// NewBus returns a Bus whose subscriber channels hold at most
// capacity buffered updates before dropping the oldest.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bus{subs: make(map[int]chan Update), cap: capacity}
}

// Subscribe registers a new listener and returns its channel and an
// unsubscribe function.
func (b *Bus) Subscribe() (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Update, b.cap)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

// Emit publishes an update to every current subscriber. Non-blocking:
// a full subscriber channel has its oldest entry dropped to make room.
func (b *Bus) Emit(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
			// Drop the oldest buffered update, then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}
