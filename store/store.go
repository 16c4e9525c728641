// Package store holds the single atomically-published Database snapshot
// every connection reads from. Reloading the backing document publishes a
// new snapshot without tearing in-flight queries: a reader that already
// dereferenced the old snapshot keeps seeing it to completion.
package store

import (
	"sync/atomic"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// Store is safe for concurrent use by many readers and, at most, one
// concurrent reload (docload's watcher serializes reloads itself).
type Store struct {
	current atomic.Pointer[sqltypes.Database]
}

// New creates a Store already holding an initial snapshot.
func New(initial *sqltypes.Database) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Snapshot returns the currently published Database. Callers must
// dereference it once at the start of a query and use that same pointer
// throughout — never re-call Snapshot mid-query, or a concurrent reload
// could mix rows from two generations of the document.
func (s *Store) Snapshot() *sqltypes.Database {
	return s.current.Load()
}

// Publish atomically replaces the current snapshot. Queries already
// holding the previous snapshot's pointer are unaffected.
func (s *Store) Publish(next *sqltypes.Database) {
	s.current.Store(next)
}

// Table is a convenience wrapper combining Snapshot + Table lookup,
// returning a SchemaError the way the executor expects when the table
// does not exist in the current snapshot.
func (s *Store) Table(name string) (*sqltypes.Table, error) {
	t, ok := s.Snapshot().Table(name)
	if !ok {
		return nil, flaterr.New(flaterr.ErrTypeSchema, "unknown table: "+name, nil)
	}
	return t, nil
}
