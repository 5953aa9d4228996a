package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// MemoryStore is an in-memory DefinitionStore and ExecutionStore,
// backed by mutex-guarded maps. Adapted from the teacher's
// map-backed MemStore[S], trimmed to this module's two narrow
// collaborator interfaces instead of the teacher's full
// checkpoint/replay Store[S] surface.
type MemoryStore struct {
	muFlows sync.RWMutex
	flows   map[string]*flow.Flow

	muExecs sync.RWMutex
	execs   map[string]*engine.FlowExecution
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flows: make(map[string]*flow.Flow),
		execs: make(map[string]*engine.FlowExecution),
	}
}

// PutFlow registers (or replaces) a flow definition. Tests and simple
// deployments use this to seed the store directly, in lieu of a
// separate admin API.
func (m *MemoryStore) PutFlow(f *flow.Flow) {
	m.muFlows.Lock()
	defer m.muFlows.Unlock()
	m.flows[f.ID] = f
}

// GetFlow implements engine.DefinitionStore.
func (m *MemoryStore) GetFlow(_ context.Context, flowID string) (*flow.Flow, error) {
	m.muFlows.RLock()
	defer m.muFlows.RUnlock()
	return m.flows[flowID], nil
}

// CreateFlowExecution implements engine.ExecutionStore. The record is
// cloned via a JSON round trip so later engine mutations to the live
// FlowExecution don't alias what's "persisted" here — mirroring what a
// real database would give you.
func (m *MemoryStore) CreateFlowExecution(_ context.Context, fe *engine.FlowExecution) error {
	clone, err := cloneExecution(fe)
	if err != nil {
		return err
	}
	m.muExecs.Lock()
	defer m.muExecs.Unlock()
	m.execs[fe.ID] = clone
	return nil
}

// UpdateFlowExecution implements engine.ExecutionStore.
func (m *MemoryStore) UpdateFlowExecution(_ context.Context, fe *engine.FlowExecution) error {
	clone, err := cloneExecution(fe)
	if err != nil {
		return err
	}
	m.muExecs.Lock()
	defer m.muExecs.Unlock()
	m.execs[fe.ID] = clone
	return nil
}

// GetFlowExecution returns a cloned snapshot of a persisted execution
// record, for callers (tests, admin tooling) that need to read back
// what was stored.
func (m *MemoryStore) GetFlowExecution(id string) (*engine.FlowExecution, error) {
	m.muExecs.RLock()
	fe, ok := m.execs[id]
	m.muExecs.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneExecution(fe)
}

func cloneExecution(fe *engine.FlowExecution) (*engine.FlowExecution, error) {
	b, err := json.Marshal(fe)
	if err != nil {
		return nil, fmt.Errorf("store: marshal flow execution: %w", err)
	}
	var clone engine.FlowExecution
	if err := json.Unmarshal(b, &clone); err != nil {
		return nil, fmt.Errorf("store: unmarshal flow execution: %w", err)
	}
	return &clone, nil
}
