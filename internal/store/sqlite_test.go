package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VahDunn/synchron-class/internal/log"
	"github.com/VahDunn/synchron-class/internal/schema"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	logging := &log.Logging{Logger: log.InitLogger(nil, zerolog.Disabled)}

	s, err := Open("sqlite", dsn, logging)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

func usersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT", Nullable: true},
		},
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	assert.Error(t, err)
}

func TestCreateTableAndIntrospect(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	def := "0"
	tb := &schema.Table{
		Name: "accounts",
		Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "email", Type: "TEXT", Unique: true},
			{Name: "balance", Type: "INTEGER", Default: &def},
			{Name: "note", Type: "TEXT", Nullable: true},
		},
	}

	require.NoError(t, s.CreateTable(ctx, tb))

	exists, err := s.TableExists(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Introspect(ctx, "accounts")
	require.NoError(t, err)
	require.Len(t, got.Columns, 4)

	id, ok := got.Column("id")
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)

	email, ok := got.Column("email")
	require.True(t, ok)
	assert.True(t, email.Unique)
	assert.False(t, email.Nullable)

	balance, ok := got.Column("balance")
	require.True(t, ok)
	require.NotNil(t, balance.Default)
	assert.Equal(t, "0", *balance.Default)

	note, ok := got.Column("note")
	require.True(t, ok)
	assert.True(t, note.Nullable)

	assert.Equal(t, []string{"id"}, got.PrimaryKey())
}

func TestIntrospectIgnoresCompositeUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE memberships (
			tenant_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			id INTEGER PRIMARY KEY,
			UNIQUE (tenant_id, name)
		)
	`)
	require.NoError(t, err)

	got, err := s.Introspect(ctx, "memberships")
	require.NoError(t, err)
	require.Len(t, got.Columns, 3)

	for _, c := range got.Columns {
		assert.False(t, c.Unique, c.Name)
	}
}

func TestIntrospectMissingTable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Introspect(ctx, "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableNames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateTable(ctx, usersTable()))
	require.NoError(t, s.CreateTable(ctx, &schema.Table{
		Name:    "audit",
		Columns: []schema.Column{{Name: "id", Type: "INTEGER", PrimaryKey: true}},
	}))

	names, err := s.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "users"}, names)
}

func TestInsertLookupUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	tb := usersTable()

	require.NoError(t, s.CreateTable(ctx, tb))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	row := schema.Row{"id": schema.Int(1), "name": schema.Text("a")}
	require.NoError(t, tx.Insert(ctx, tb.Name, tb.ColumnNames(), row))

	key := Key{Columns: []string{"id"}, Values: []schema.Value{schema.Int(1)}}

	got, found, err := tx.Lookup(ctx, tb, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got["name"].Equal(schema.Text("a")))

	updated := schema.Row{"id": schema.Int(1), "name": schema.Text("b")}
	require.NoError(t, tx.Update(ctx, tb.Name, []string{"name"}, updated, key))

	got, found, err = tx.Lookup(ctx, tb, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got["name"].Equal(schema.Text("b")))

	missing := Key{Columns: []string{"id"}, Values: []schema.Value{schema.Int(99)}}
	_, found, err = tx.Lookup(ctx, tb, missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tx.Commit())

	rows, err := s.ReadAll(ctx, tb)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0]["id"].Equal(schema.Int(1)))
	assert.True(t, rows[0]["name"].Equal(schema.Text("b")))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	tb := usersTable()

	require.NoError(t, s.CreateTable(ctx, tb))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, tb.Name, tb.ColumnNames(), schema.Row{
		"id":   schema.Int(1),
		"name": schema.Text("a"),
	}))
	require.NoError(t, tx.Rollback())

	rows, err := s.ReadAll(ctx, tb)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCompositeKeyLookup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tb := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "tenant", Type: "INTEGER", PrimaryKey: true},
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "total", Type: "INTEGER", Nullable: true},
		},
	}
	require.NoError(t, s.CreateTable(ctx, tb))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, tb.Name, tb.ColumnNames(), schema.Row{
		"tenant": schema.Int(1), "id": schema.Int(1), "total": schema.Int(10),
	}))
	require.NoError(t, tx.Insert(ctx, tb.Name, tb.ColumnNames(), schema.Row{
		"tenant": schema.Int(2), "id": schema.Int(1), "total": schema.Int(20),
	}))

	// both key columns must match; a partial-key collision is not a match
	key := Key{Columns: []string{"tenant", "id"}, Values: []schema.Value{schema.Int(2), schema.Int(1)}}
	got, found, err := tx.Lookup(ctx, tb, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got["total"].Equal(schema.Int(20)))

	key = Key{Columns: []string{"tenant", "id"}, Values: []schema.Value{schema.Int(3), schema.Int(1)}}
	_, found, err = tx.Lookup(ctx, tb, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tx.Commit())
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$2", postgresDialect{}.placeholder(2))
	assert.Equal(t, "?", mysqlDialect{}.placeholder(2))
	assert.Equal(t, "?", sqliteDialect{}.placeholder(2))

	assert.Equal(t, `"users"`, postgresDialect{}.quoteIdent("users"))
	assert.Equal(t, "`users`", mysqlDialect{}.quoteIdent("users"))
	assert.Equal(t, `"users"`, sqliteDialect{}.quoteIdent("users"))
}
