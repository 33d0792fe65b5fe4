// Package store abstracts the relational stores the synchronizer reads
// from and writes to. Each supported engine contributes a dialect that
// isolates its introspection and SQL quirks; everything else is shared
// database/sql plumbing.
package store

import (
	"context"
	"errors"

	"github.com/VahDunn/synchron-class/internal/schema"
)

// ErrTableNotFound is returned by Introspect when the named table does not
// exist in the store.
var ErrTableNotFound = errors.New("table not found")

// Key is an equality predicate over one or more key columns. Values are
// matched positionally against Columns; composite keys keep column order.
type Key struct {
	Columns []string
	Values  []schema.Value
}

// Store is a live connection to one relational database.
type Store interface {
	// TableNames lists every base table in the store.
	TableNames(ctx context.Context) ([]string, error)

	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// Introspect reflects the current definition of the named table.
	// Returns ErrTableNotFound when the table does not exist.
	Introspect(ctx context.Context, table string) (*schema.Table, error)

	// CreateTable creates a table mirroring the given definition. It
	// never alters an existing table.
	CreateTable(ctx context.Context, tb *schema.Table) error

	// ReadAll materializes the entire table as rows, selecting the
	// columns of the given definition in order.
	ReadAll(ctx context.Context, tb *schema.Table) ([]schema.Row, error)

	// Begin opens a write transaction.
	Begin(ctx context.Context) (Tx, error)

	Close() error
}

// Tx is a single write transaction against a store.
type Tx interface {
	// Lookup fetches at most one row matching the key predicate.
	Lookup(ctx context.Context, tb *schema.Table, key Key) (schema.Row, bool, error)

	// Insert writes a new row carrying the given columns.
	Insert(ctx context.Context, table string, columns []string, row schema.Row) error

	// Update overwrites the given columns on every row matching the key.
	Update(ctx context.Context, table string, columns []string, row schema.Row, key Key) error

	Commit() error
	Rollback() error
}
