package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/store"
)

func newTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowengine.db")
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorePutAndGetFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	f := &flow.Flow{ID: "f1", Name: "greeting", IsActive: true, Nodes: []flow.Node{
		{NodeID: "n1", Type: flow.TypeInput, NextNodeID: "n2"},
		{NodeID: "n2", Type: flow.TypeOutput},
	}}
	if err := s.PutFlow(ctx, f); err != nil {
		t.Fatalf("PutFlow: %v", err)
	}

	got, err := s.GetFlow(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got == nil || got.Name != "greeting" || len(got.Nodes) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestSQLiteStorePutFlowUpsertsOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	f := &flow.Flow{ID: "f1", Name: "v1", IsActive: true, Nodes: []flow.Node{{NodeID: "n1", Type: flow.TypeInput}}}
	if err := s.PutFlow(ctx, f); err != nil {
		t.Fatalf("PutFlow: %v", err)
	}

	f.Name = "v2"
	f.Nodes = append(f.Nodes, flow.Node{NodeID: "n2", Type: flow.TypeOutput})
	if err := s.PutFlow(ctx, f); err != nil {
		t.Fatalf("PutFlow (update): %v", err)
	}

	got, err := s.GetFlow(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got.Name != "v2" || len(got.Nodes) != 2 {
		t.Fatalf("got %+v, want updated record", got)
	}
}

func TestSQLiteStoreGetFlowUnknownReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	got, err := s.GetFlow(ctx, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestSQLiteStoreExecutionCreateUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	fe := &engine.FlowExecution{ID: "e1", FlowID: "f1", Status: engine.ExecRunning, TokensUsed: 4}
	if err := s.CreateFlowExecution(ctx, fe); err != nil {
		t.Fatalf("CreateFlowExecution: %v", err)
	}

	fe.Status = engine.ExecCompleted
	fe.TokensUsed = 9
	if err := s.UpdateFlowExecution(ctx, fe); err != nil {
		t.Fatalf("UpdateFlowExecution: %v", err)
	}

	got, err := s.GetFlowExecution(ctx, "e1")
	if err != nil {
		t.Fatalf("GetFlowExecution: %v", err)
	}
	if got.Status != engine.ExecCompleted || got.TokensUsed != 9 {
		t.Fatalf("got %+v", got)
	}
}

func TestSQLiteStoreGetFlowExecutionNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if _, err := s.GetFlowExecution(ctx, "missing"); err != store.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorePing(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
