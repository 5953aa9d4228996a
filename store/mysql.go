package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// MySQLStore is a MySQL/MariaDB-backed DefinitionStore and
// ExecutionStore, grounded on the teacher's MySQLStore[S] connection
// pool configuration (bounded open/idle connections, connection
// lifetime limits) with the same JSON-body schema as SQLiteStore.
//
// DSN format: [username[:password]@][protocol[(address)]]/dbname[?params].
type MySQLStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewMySQLStore opens a connection pool against dsn and ensures the
// schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const flowsTable = `
		CREATE TABLE IF NOT EXISTS flow_definitions (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			is_active TINYINT(1) NOT NULL,
			body JSON NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, flowsTable); err != nil {
		return fmt.Errorf("store: create flow_definitions: %w", err)
	}

	const execsTable = `
		CREATE TABLE IF NOT EXISTS flow_executions (
			id VARCHAR(255) PRIMARY KEY,
			flow_id VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			body JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_flow_id (flow_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, execsTable); err != nil {
		return fmt.Errorf("store: create flow_executions: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *MySQLStore) Close() error { return s.db.Close() }

// Ping verifies the connection is alive.
func (s *MySQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// PutFlow inserts or replaces a flow definition.
func (s *MySQLStore) PutFlow(ctx context.Context, f *flow.Flow) error {
	body, err := json.Marshal(f.Nodes)
	if err != nil {
		return fmt.Errorf("store: marshal flow nodes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_definitions (id, name, is_active, body)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name=VALUES(name), is_active=VALUES(is_active), body=VALUES(body)
	`, f.ID, f.Name, boolToInt(f.IsActive), string(body))
	if err != nil {
		return fmt.Errorf("store: upsert flow_definitions: %w", err)
	}
	return nil
}

// GetFlow implements engine.DefinitionStore.
func (s *MySQLStore) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
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
func (s *MySQLStore) CreateFlowExecution(ctx context.Context, fe *engine.FlowExecution) error {
	return s.upsertExecution(ctx, fe)
}

// UpdateFlowExecution implements engine.ExecutionStore.
func (s *MySQLStore) UpdateFlowExecution(ctx context.Context, fe *engine.FlowExecution) error {
	return s.upsertExecution(ctx, fe)
}

func (s *MySQLStore) upsertExecution(ctx context.Context, fe *engine.FlowExecution) error {
	body, err := json.Marshal(fe)
	if err != nil {
		return fmt.Errorf("store: marshal flow execution: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_executions (id, flow_id, status, body)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE flow_id=VALUES(flow_id), status=VALUES(status), body=VALUES(body)
	`, fe.ID, fe.FlowID, string(fe.Status), string(body))
	if err != nil {
		return fmt.Errorf("store: upsert flow_executions: %w", err)
	}
	return nil
}

// GetFlowExecution reads back a persisted execution record by ID.
func (s *MySQLStore) GetFlowExecution(ctx context.Context, id string) (*engine.FlowExecution, error) {
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
