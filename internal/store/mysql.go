package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/VahDunn/synchron-class/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) driverName() string { return "mysql" }

func (mysqlDialect) placeholder(int) string { return "?" }

func (mysqlDialect) quoteIdent(name string) string { return "`" + name + "`" }

// go-sql-driver serves argument-less queries over the text protocol,
// where every column arrives as []byte, while parameterized queries use
// the binary protocol and arrive typed. Parse text-protocol bytes
// according to the declared column type so both paths yield the same
// values.
func (mysqlDialect) normalizeValue(c schema.Column, v interface{}) (interface{}, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}

	switch baseType(c.Type) {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", c.Type, b, err)
		}
		return n, nil
	case "float", "double", "real":
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", c.Type, b, err)
		}
		return f, nil
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob", "bit":
		return b, nil
	default:
		// char, varchar, text, enum, set, decimal, json and the
		// date/time types are carried as text on both protocols.
		return string(b), nil
	}
}

// baseType strips the length and attribute suffix from a declared type,
// e.g. "int(11) unsigned" -> "int".
func baseType(declared string) string {
	t := strings.ToLower(declared)
	if i := strings.IndexAny(t, " ("); i >= 0 {
		t = t[:i]
	}
	return t
}

func (mysqlDialect) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
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

func (mysqlDialect) tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
	`

	var count int
	if err := db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking table existence: %w", err)
	}
	return count > 0, nil
}

func (d mysqlDialect) introspect(ctx context.Context, db *sql.DB, table string) (*schema.Table, error) {
	exists, err := d.tableExists(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns: %w", err)
	}
	defer rows.Close()

	tb := &schema.Table{Name: table}
	for rows.Next() {
		var name, columnType, nullable, columnKey string
		var defaultValue sql.NullString

		if err := rows.Scan(&name, &columnType, &nullable, &defaultValue, &columnKey); err != nil {
			return nil, fmt.Errorf("error scanning column results: %w", err)
		}

		col := schema.Column{
			Name:       name,
			Type:       columnType,
			Nullable:   nullable == "YES",
			PrimaryKey: columnKey == "PRI",
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

// markUnique flags columns covered by a single-column unique index.
// COLUMN_KEY is no substitute: it reports 'UNI' for the first member of
// a composite unique index as well.
func (d mysqlDialect) markUnique(ctx context.Context, db *sql.DB, tb *schema.Table) error {
	query := `
		SELECT INDEX_NAME, COLUMN_NAME
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		AND NON_UNIQUE = 0
		AND INDEX_NAME <> 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`

	rows, err := db.QueryContext(ctx, query, tb.Name)
	if err != nil {
		return fmt.Errorf("error querying indexes: %w", err)
	}
	defer rows.Close()

	indexColumns := make(map[string][]string)
	for rows.Next() {
		var index, column string
		if err := rows.Scan(&index, &column); err != nil {
			return fmt.Errorf("error scanning index results: %w", err)
		}
		indexColumns[index] = append(indexColumns[index], column)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error querying indexes: %w", err)
	}

	for _, name := range singleColumnIndexes(indexColumns) {
		for i := range tb.Columns {
			if tb.Columns[i].Name == name {
				tb.Columns[i].Unique = true
			}
		}
	}
	return nil
}

// singleColumnIndexes returns the columns covered by an index of exactly
// one column.
func singleColumnIndexes(indexColumns map[string][]string) []string {
	var cols []string
	for _, members := range indexColumns {
		if len(members) == 1 {
			cols = append(cols, members[0])
		}
	}
	return cols
}
