package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/VahDunn/synchron-class/internal/log"
	"github.com/VahDunn/synchron-class/internal/schema"
)

// dialect isolates the engine-specific parts of a store: identifier
// quoting, placeholder syntax, schema introspection and scan-value
// normalization.
type dialect interface {
	driverName() string
	placeholder(n int) string // n is 1-based
	quoteIdent(name string) string
	tableNames(ctx context.Context, db *sql.DB) ([]string, error)
	tableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	introspect(ctx context.Context, db *sql.DB, table string) (*schema.Table, error)

	// normalizeValue converts a value scanned from the driver into a
	// canonical Go type for the column's declared type, so that the same
	// cell compares equal no matter which query path produced it.
	normalizeValue(c schema.Column, v interface{}) (interface{}, error)
}

// SQL is a Store backed by a database/sql connection pool.
type SQL struct {
	db *sql.DB
	d  dialect

	*log.Logging
}

var _ Store = &SQL{}

// Open connects to a store. Supported drivers: "postgres", "mysql",
// "sqlite". The connection is pinged before being returned so that a bad
// endpoint fails here rather than mid-sync.
func Open(driver, dsn string, logging *log.Logging) (*SQL, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %w", driver, err)
	}

	return &SQL{db: db, d: d, Logging: logging}, nil
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "sqlite":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func (s *SQL) TableNames(ctx context.Context) ([]string, error) {
	return s.d.tableNames(ctx, s.db)
}

func (s *SQL) TableExists(ctx context.Context, table string) (bool, error) {
	return s.d.tableExists(ctx, s.db, table)
}

func (s *SQL) Introspect(ctx context.Context, table string) (*schema.Table, error) {
	return s.d.introspect(ctx, s.db, table)
}

func (s *SQL) CreateTable(ctx context.Context, tb *schema.Table) error {
	defs := make([]string, 0, len(tb.Columns)+1)
	for _, c := range tb.Columns {
		def := s.d.quoteIdent(c.Name) + " " + c.Type
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Default != nil {
			def += " DEFAULT " + *c.Default
		}
		// a single-column primary key already implies uniqueness
		if c.Unique && !c.PrimaryKey {
			def += " UNIQUE"
		}
		defs = append(defs, def)
	}

	if pk := tb.PrimaryKey(); len(pk) > 0 {
		quoted := make([]string, 0, len(pk))
		for _, name := range pk {
			quoted = append(quoted, s.d.quoteIdent(name))
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	query := fmt.Sprintf("CREATE TABLE %s (%s)", s.d.quoteIdent(tb.Name), strings.Join(defs, ", "))
	s.LogDebug("creating table", "table", tb.Name, "query", query)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tb.Name, err)
	}
	return nil
}

func (s *SQL) ReadAll(ctx context.Context, tb *schema.Table) ([]schema.Row, error) {
	names := tb.ColumnNames()
	query := "SELECT " + s.selectList(names) + " FROM " + s.d.quoteIdent(tb.Name)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", tb.Name, err)
	}
	defer rows.Close()

	var out []schema.Row
	for rows.Next() {
		row, err := scanRow(rows, s.d, tb.Columns)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tb.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", tb.Name, err)
	}
	return out, nil
}

func (s *SQL) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, d: s.d}, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) selectList(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, s.d.quoteIdent(n))
	}
	return strings.Join(quoted, ", ")
}

type sqlTx struct {
	tx *sql.Tx
	d  dialect
}

var _ Tx = &sqlTx{}

func (t *sqlTx) Lookup(ctx context.Context, tb *schema.Table, key Key) (schema.Row, bool, error) {
	names := tb.ColumnNames()
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, t.d.quoteIdent(n))
	}

	where, args := t.whereKey(key, 1)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(quoted, ", "), t.d.quoteIdent(tb.Name), where)

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up row in %s: %w", tb.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, fmt.Errorf("failed to look up row in %s: %w", tb.Name, err)
		}
		return nil, false, nil
	}

	row, err := scanRow(rows, t.d, tb.Columns)
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan row from %s: %w", tb.Name, err)
	}
	return row, true, nil
}

func (t *sqlTx) Insert(ctx context.Context, table string, columns []string, row schema.Row) error {
	quoted := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for i, c := range columns {
		quoted = append(quoted, t.d.quoteIdent(c))
		placeholders = append(placeholders, t.d.placeholder(i+1))
		args = append(args, row[c].ToAny())
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.d.quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (t *sqlTx) Update(ctx context.Context, table string, columns []string, row schema.Row, key Key) error {
	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+len(key.Columns))
	for i, c := range columns {
		sets = append(sets, t.d.quoteIdent(c)+" = "+t.d.placeholder(i+1))
		args = append(args, row[c].ToAny())
	}

	where, whereArgs := t.whereKey(key, len(columns)+1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		t.d.quoteIdent(table), strings.Join(sets, ", "), where)

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

func (t *sqlTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}

// whereKey builds an equality conjunction over the key columns, with
// placeholders numbered from start.
func (t *sqlTx) whereKey(key Key, start int) (string, []interface{}) {
	conds := make([]string, 0, len(key.Columns))
	args := make([]interface{}, 0, len(key.Values))
	for i, c := range key.Columns {
		conds = append(conds, t.d.quoteIdent(c)+" = "+t.d.placeholder(start+i))
		args = append(args, key.Values[i].ToAny())
	}
	return strings.Join(conds, " AND "), args
}

func scanRow(rows *sql.Rows, d dialect, columns []schema.Column) (schema.Row, error) {
	raw := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(schema.Row, len(columns))
	for i, c := range columns {
		normalized, err := d.normalizeValue(c, raw[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		v, err := schema.FromAny(normalized)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		row[c.Name] = v
	}
	return row, nil
}
