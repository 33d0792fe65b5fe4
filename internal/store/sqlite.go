package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver, registered as "sqlite"

	"github.com/VahDunn/synchron-class/internal/schema"
)

type sqliteDialect struct{}

func (sqliteDialect) driverName() string { return "sqlite" }

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) quoteIdent(name string) string { return `"` + name + `"` }

// modernc.org/sqlite returns typed values on every query path.
func (sqliteDialect) normalizeValue(_ schema.Column, v interface{}) (interface{}, error) {
	return v, nil
}

func (sqliteDialect) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning table results: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (sqliteDialect) tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`

	var exists bool
	if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking table existence: %w", err)
	}
	return exists, nil
}

func (d sqliteDialect) introspect(ctx context.Context, db *sql.DB, table string) (*schema.Table, error) {
	exists, err := d.tableExists(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("error querying columns: %w", err)
	}
	defer rows.Close()

	tb := &schema.Table{Name: table}
	for rows.Next() {
		var cid, notNull, pk int
		var name, columnType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &columnType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("error scanning column results: %w", err)
		}

		col := schema.Column{
			Name:       name,
			Type:       columnType,
			Nullable:   notNull == 0 && pk == 0,
			PrimaryKey: pk > 0,
		}
		if defaultValue.Valid {
			v := defaultValue.String
			col.Default = &v
		}
		tb.Columns = append(tb.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error querying columns: %w", err)
	}

	if err := d.markUnique(ctx, db, tb); err != nil {
		return nil, err
	}
	return tb, nil
}

// markUnique flags columns covered by a single-column unique index created
// via a UNIQUE constraint.
func (d sqliteDialect) markUnique(ctx context.Context, db *sql.DB, tb *schema.Table) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", d.quoteIdent(tb.Name)))
	if err != nil {
		return fmt.Errorf("error querying indexes: %w", err)
	}
	defer rows.Close()

	var uniqueIndexes []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("error scanning index results: %w", err)
		}
		if unique == 1 && origin == "u" {
			uniqueIndexes = append(uniqueIndexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error querying indexes: %w", err)
	}

	for _, idx := range uniqueIndexes {
		cols, err := d.indexColumns(ctx, db, idx)
		if err != nil {
			return err
		}
		if len(cols) != 1 {
			continue
		}
		for i := range tb.Columns {
			if tb.Columns[i].Name == cols[0] {
				tb.Columns[i].Unique = true
			}
		}
	}
	return nil
}

func (d sqliteDialect) indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", d.quoteIdent(index)))
	if err != nil {
		return nil, fmt.Errorf("error querying index columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name string
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("error scanning index columns: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
