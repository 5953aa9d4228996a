// Package store provides DefinitionStore/ExecutionStore implementations
// for the engine package (spec.md §6 items 1-2): an in-memory pair for
// tests and single-process use, and SQLite/MySQL pairs for durable
// persistence.
package store

import "errors"

// ErrNotFound is returned by GetFlowExecution when no execution record
// has the requested ID. GetFlow itself never returns this — per
// engine.DefinitionStore's contract it returns (nil, nil) for an
// unknown flow ID, leaving the "not found" translation to the engine.
var ErrNotFound = errors.New("store: not found")
