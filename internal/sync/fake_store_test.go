package sync

import (
	"context"
	"fmt"

	"github.com/VahDunn/synchron-class/internal/schema"
	"github.com/VahDunn/synchron-class/internal/store"
)

// fakeStore is an in-memory store.Store used to exercise the synchronizer
// without a live database. Writes are staged per transaction and applied
// on Commit. Errors can be injected per operation.
type fakeStore struct {
	order  []string
	tables map[string]*schema.Table
	rows   map[string][]schema.Row

	failIntrospect map[string]error
	failInsert     error
	failUpdate     error
	failBegin      error
	failCommit     error
}

var _ store.Store = &fakeStore{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:         map[string]*schema.Table{},
		rows:           map[string][]schema.Row{},
		failIntrospect: map[string]error{},
	}
}

func (f *fakeStore) addTable(tb *schema.Table, rows ...schema.Row) {
	f.order = append(f.order, tb.Name)
	f.tables[tb.Name] = tb
	f.rows[tb.Name] = append([]schema.Row(nil), rows...)
}

func (f *fakeStore) TableNames(context.Context) ([]string, error) {
	return append([]string(nil), f.order...), nil
}

func (f *fakeStore) TableExists(_ context.Context, table string) (bool, error) {
	_, ok := f.tables[table]
	return ok, nil
}

func (f *fakeStore) Introspect(_ context.Context, table string) (*schema.Table, error) {
	if err := f.failIntrospect[table]; err != nil {
		return nil, err
	}
	tb, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, table)
	}
	return tb, nil
}

func (f *fakeStore) CreateTable(_ context.Context, tb *schema.Table) error {
	if _, ok := f.tables[tb.Name]; ok {
		return fmt.Errorf("table %s already exists", tb.Name)
	}
	f.addTable(tb)
	return nil
}

func (f *fakeStore) ReadAll(_ context.Context, tb *schema.Table) ([]schema.Row, error) {
	rows, ok := f.rows[tb.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, tb.Name)
	}
	out := make([]schema.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, copyRow(r))
	}
	return out, nil
}

func (f *fakeStore) Begin(context.Context) (store.Tx, error) {
	if f.failBegin != nil {
		return nil, f.failBegin
	}
	staged := map[string][]schema.Row{}
	for name, rows := range f.rows {
		cp := make([]schema.Row, 0, len(rows))
		for _, r := range rows {
			cp = append(cp, copyRow(r))
		}
		staged[name] = cp
	}
	return &fakeTx{store: f, staged: staged}, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeTx struct {
	store  *fakeStore
	staged map[string][]schema.Row
	done   bool
}

var _ store.Tx = &fakeTx{}

func (t *fakeTx) Lookup(_ context.Context, tb *schema.Table, key store.Key) (schema.Row, bool, error) {
	for _, r := range t.staged[tb.Name] {
		if matchesKey(r, key) {
			return copyRow(r), true, nil
		}
	}
	return nil, false, nil
}

func (t *fakeTx) Insert(_ context.Context, table string, columns []string, row schema.Row) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	r := make(schema.Row, len(columns))
	for _, c := range columns {
		r[c] = row[c]
	}
	t.staged[table] = append(t.staged[table], r)
	return nil
}

func (t *fakeTx) Update(_ context.Context, table string, columns []string, row schema.Row, key store.Key) error {
	if t.store.failUpdate != nil {
		return t.store.failUpdate
	}
	for _, r := range t.staged[table] {
		if matchesKey(r, key) {
			for _, c := range columns {
				r[c] = row[c]
			}
		}
	}
	return nil
}

func (t *fakeTx) Commit() error {
	if t.store.failCommit != nil {
		return t.store.failCommit
	}
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	t.store.rows = t.staged
	return nil
}

func (t *fakeTx) Rollback() error {
	t.done = true
	return nil
}

func copyRow(r schema.Row) schema.Row {
	cp := make(schema.Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

func matchesKey(r schema.Row, key store.Key) bool {
	for i, c := range key.Columns {
		if !r[c].Equal(key.Values[i]) {
			return false
		}
	}
	return true
}
