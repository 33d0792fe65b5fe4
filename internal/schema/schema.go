package schema

// Column describes a single table column as reported by a store's
// introspection layer.
type Column struct {
	Name       string
	Type       string // engine type string, e.g. "integer", "varchar(255)"
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    *string // default expression, nil when the column has none
}

// Table holds the introspected definition of a table: its name and its
// columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKey returns the names of the primary-key columns in declaration
// order. Composite keys keep their column order.
func (t *Table) PrimaryKey() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Column returns the column with the given name, if present.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns all column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Row maps column names to scalar values. Column order comes from the
// owning Table.
type Row map[string]Value

// Key extracts the values of the given key columns from the row,
// preserving key column order.
func (r Row) Key(keyColumns []string) []Value {
	values := make([]Value, 0, len(keyColumns))
	for _, k := range keyColumns {
		values = append(values, r[k])
	}
	return values
}
