package emit

import "sync"

// BufferedEmitter stores updates in memory, organized by execution
// ID, for test assertions and post-execution inspection. Ported
// directly from graph/emit/buffered.go's BufferedEmitter, adapted
// from Event/RunID to Update/ExecutionID.
type BufferedEmitter struct {
	mu      sync.RWMutex
	updates map[string][]Update
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{updates: make(map[string][]Update)}
}

func (b *BufferedEmitter) Emit(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates[u.ExecutionID] = append(b.updates[u.ExecutionID], u)
}

// History returns a copy of all updates recorded for an execution, in
// emission order.
func (b *BufferedEmitter) History(executionID string) []Update {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.updates[executionID]
	out := make([]Update, len(src))
	copy(out, src)
	return out
}

// Clear removes stored updates for an execution, or all updates if
// executionID is empty.
func (b *BufferedEmitter) Clear(executionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if executionID == "" {
		b.updates = make(map[string][]Update)
		return
	}
	delete(b.updates, executionID)
}
