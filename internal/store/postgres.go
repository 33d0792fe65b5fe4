package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/VahDunn/synchron-class/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) driverName() string { return "postgres" }

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) quoteIdent(name string) string { return `"` + name + `"` }

// lib/pq already hands back typed values on every query path.
func (postgresDialect) normalizeValue(_ schema.Column, v interface{}) (interface{}, error) {
	return v, nil
}

func (postgresDialect) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
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

func (postgresDialect) tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`

	var exists bool
	if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking table existence: %w", err)
	}
	return exists, nil
}

func (d postgresDialect) introspect(ctx context.Context, db *sql.DB, table string) (*schema.Table, error) {
	exists, err := d.tableExists(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	// EXISTS keeps the result at one row per column even when a column is
	// covered by several constraints. Only single-column UNIQUE constraints
	// mark a column unique; a composite UNIQUE(a, b) constrains the pair,
	// not its members.
	query := `
		SELECT
			a.attname AS column_name,
			pg_catalog.format_type(a.atttypid, a.atttypmod) AS data_type,
			NOT a.attnotnull AS is_nullable,
			CASE WHEN a.atthasdef THEN pg_get_expr(adef.adbin, adef.adrelid) ELSE NULL END AS column_default,
			EXISTS (
				SELECT 1 FROM pg_catalog.pg_constraint prim
				WHERE prim.conrelid = a.attrelid AND a.attnum = ANY(prim.conkey) AND prim.contype = 'p'
			) AS is_primary_key,
			EXISTS (
				SELECT 1 FROM pg_catalog.pg_constraint uniq
				WHERE uniq.conrelid = a.attrelid AND a.attnum = ANY(uniq.conkey) AND uniq.contype = 'u'
				AND array_length(uniq.conkey, 1) = 1
			) AS is_unique
		FROM
			pg_catalog.pg_attribute a
		LEFT JOIN
			pg_catalog.pg_attrdef adef ON a.attrelid = adef.adrelid AND a.attnum = adef.adnum
		WHERE
			a.attrelid = (SELECT oid FROM pg_catalog.pg_class WHERE relname = $1 AND
						  relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = 'public'))
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY
			a.attnum
	`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns: %w", err)
	}
	defer rows.Close()

	tb := &schema.Table{Name: table}
	for rows.Next() {
		var col schema.Column
		var defaultValue sql.NullString

		err := rows.Scan(
			&col.Name,
			&col.Type,
			&col.Nullable,
			&defaultValue,
			&col.PrimaryKey,
			&col.Unique,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning column results: %w", err)
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
	return tb, nil
}
