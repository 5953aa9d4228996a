package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// SQLiteStore is a SQLite-backed DefinitionStore and ExecutionStore,
// grounded on the teacher's SQLiteStore[S] connection setup (WAL mode,
// single-writer connection pool, busy_timeout) but with a schema sized
// for this module's two record types instead of the teacher's
// checkpoint/idempotency/outbox tables.
//
// Flow definitions and flow executions are both stored as a single
// JSON body column; neither type's shape is relational enough to earn
// normalized columns, and the engine only ever fetches/replaces whole
// records.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path
// and ensures its schema exists. path may be ":memory:" for a
// process-local database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	const flowsTable = `
		CREATE TABLE IF NOT EXISTS flow_definitions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_active INTEGER NOT NULL,
			body TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, flowsTable); err != nil {
		return fmt.Errorf("store: create flow_definitions: %w", err)
	}

	const execsTable = `
		CREATE TABLE IF NOT EXISTS flow_executions (
			id TEXT PRIMARY KEY,
			flow_id TEXT NOT NULL,
			status TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, execsTable); err != nil {
		return fmt.Errorf("store: create flow_executions: %w", err)
	}
	const execsIndex = `CREATE INDEX IF NOT EXISTS idx_flow_executions_flow_id ON flow_executions(flow_id)`
	if _, err := s.db.ExecContext(ctx, execsIndex); err != nil {
		return fmt.Errorf("store: create flow_executions index: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping verifies the connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Path returns the database file path (or ":memory:") this store was
// opened with.
func (s *SQLiteStore) Path() string { return s.path }

// PutFlow inserts or replaces a flow definition.
func (s *SQLiteStore) PutFlow(ctx context.Context, f *flow.Flow) error {
	body, err := json.Marshal(f.Nodes)
	if err != nil {
		return fmt.Errorf("store: marshal flow nodes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_definitions (id, name, is_active, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, is_active=excluded.is_active, body=excluded.body, updated_at=excluded.updated_at
	`, f.ID, f.Name, boolToInt(f.IsActive), string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: upsert flow_definitions: %w", err)
	}
	return nil
}

// GetFlow implements engine.DefinitionStore.
func (s *SQLiteStore) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, name, is_active, body FROM flow_definitions WHERE id = ?`, flowID)
	var (
		id       string
		name     string
		isActive int
		body     string
	)
	if err := row.Scan(&id, &name, &isActive, &body); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan flow_definitions: %w", err)
	}

	var nodes []flow.Node
	if err := json.Unmarshal([]byte(body), &nodes); err != nil {
		return nil, fmt.Errorf("store: unmarshal flow nodes: %w", err)
	}
	return &flow.Flow{ID: id, Name: name, IsActive: isActive != 0, Nodes: nodes}, nil
}

// CreateFlowExecution implements engine.ExecutionStore.
func (s *SQLiteStore) CreateFlowExecution(ctx context.Context, fe *engine.FlowExecution) error {
	return s.upsertExecution(ctx, fe)
}

// UpdateFlowExecution implements engine.ExecutionStore.
func (s *SQLiteStore) UpdateFlowExecution(ctx context.Context, fe *engine.FlowExecution) error {
	return s.upsertExecution(ctx, fe)
}

func (s *SQLiteStore) upsertExecution(ctx context.Context, fe *engine.FlowExecution) error {
	body, err := json.Marshal(fe)
	if err != nil {
		return fmt.Errorf("store: marshal flow execution: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_executions (id, flow_id, status, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			flow_id=excluded.flow_id, status=excluded.status, body=excluded.body, updated_at=excluded.updated_at
	`, fe.ID, fe.FlowID, string(fe.Status), string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: upsert flow_executions: %w", err)
	}
	return nil
}

// GetFlowExecution reads back a persisted execution record by ID.
func (s *SQLiteStore) GetFlowExecution(ctx context.Context, id string) (*engine.FlowExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	row := s.db.QueryRowContext(ctx, `SELECT body FROM flow_executions WHERE id = ?`, id)
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan flow_executions: %w", err)
	}

	var fe engine.FlowExecution
	if err := json.Unmarshal([]byte(body), &fe); err != nil {
		return nil, fmt.Errorf("store: unmarshal flow execution: %w", err)
	}
	return &fe, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
