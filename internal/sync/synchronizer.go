// Package sync implements one-way synchronization of table schema and row
// data from a source relational store to a target relational store. Schema
// differences are advisory (logged, never acted on); row reconciliation is
// keyed by the source table's primary key inside one target transaction per
// table.
package sync

import (
	"context"
	"fmt"

	"github.com/VahDunn/synchron-class/internal/log"
	"github.com/VahDunn/synchron-class/internal/schema"
	"github.com/VahDunn/synchron-class/internal/store"
)

// Stats counts the work done by a Synchronizer since construction.
type Stats struct {
	TablesSynced int64
	RowsRead     int64
	RowsInserted int64
	RowsUpdated  int64
}

// Options tune a Synchronizer. The zero value selects the overwrite policy
// and no snapshots.
type Options struct {
	Policy      Policy
	SnapshotDir string
}

// Synchronizer copies row data from the source store into the target store.
// It is sequential and single-use per invocation; it does not guard against
// concurrent synchronizers racing on the same tables.
type Synchronizer struct {
	source store.Store
	target store.Store
	opts   Options

	stats Stats

	*log.Logging
}

// New builds a Synchronizer over an open source and target store.
func New(source, target store.Store, opts Options, logging *log.Logging) *Synchronizer {
	if opts.Policy == "" {
		opts.Policy = PolicyOverwrite
	}
	return &Synchronizer{
		source:  source,
		target:  target,
		opts:    opts,
		Logging: logging,
	}
}

// Stats returns the totals accumulated so far.
func (s *Synchronizer) Stats() Stats {
	return s.stats
}

// SyncDatabase synchronizes the named tables in order. With an empty list,
// every table reflected from the source is synchronized. The first failing
// table aborts the run; the remaining tables are not attempted.
func (s *Synchronizer) SyncDatabase(ctx context.Context, tables []string) error {
	if len(tables) == 0 {
		names, err := s.source.TableNames(ctx)
		if err != nil {
			serr := syncErr("", KindIntrospection, err)
			s.LogSevere("failed to reflect source tables", serr)
			return serr
		}
		tables = names
	}

	for _, name := range tables {
		s.LogInfo("starting table synchronization", "table", name)

		if err := s.logDiff(ctx, name); err != nil {
			return err
		}
		if err := s.SyncTable(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// logDiff computes the advisory schema diff for one table and logs a
// warning when it is non-empty. A target table that does not exist yet is
// not a difference; it will be provisioned by SyncTable.
func (s *Synchronizer) logDiff(ctx context.Context, name string) error {
	sourceTb, err := s.source.Introspect(ctx, name)
	if err != nil {
		serr := syncErr(name, KindIntrospection, err)
		s.LogSevere("failed to reflect source table", serr, "table", name)
		return serr
	}

	exists, err := s.target.TableExists(ctx, name)
	if err != nil {
		serr := syncErr(name, KindSync, err)
		s.LogSevere("failed to check target table", serr, "table", name)
		return serr
	}
	if !exists {
		return nil
	}

	targetTb, err := s.target.Introspect(ctx, name)
	if err != nil {
		serr := syncErr(name, KindIntrospection, err)
		s.LogSevere("failed to reflect target table", serr, "table", name)
		return serr
	}

	if d := schema.Diff(sourceTb, targetTb); !d.Empty() {
		s.LogWarning("table structure differences detected", nil,
			"table", name,
			"added", d.Added,
			"modified", d.Modified,
			"removed", d.Removed,
		)
	}
	return nil
}

// SyncTable synchronizes one table: ensure the target table exists, read
// the full source table, reconcile each row by primary key inside a single
// target transaction, commit. Any row-level error aborts the whole table's
// transaction.
func (s *Synchronizer) SyncTable(ctx context.Context, name string) error {
	if err := validateTableName(name); err != nil {
		serr := syncErr(name, KindSync, err)
		s.LogSevere("invalid table name", serr)
		return serr
	}

	sourceTb, err := s.source.Introspect(ctx, name)
	if err != nil {
		serr := syncErr(name, KindIntrospection, err)
		s.LogSevere("failed to reflect source table", serr, "table", name)
		return serr
	}
	for _, c := range sourceTb.Columns {
		if err := validateColumnName(c.Name); err != nil {
			serr := syncErr(name, KindSync, err)
			s.LogSevere("invalid column name", serr, "table", name)
			return serr
		}
	}

	keyColumns := sourceTb.PrimaryKey()
	if len(keyColumns) == 0 {
		serr := syncErr(name, KindSync, fmt.Errorf("table has no primary key"))
		s.LogSevere("cannot reconcile rows without a primary key", serr, "table", name)
		return serr
	}

	rows, err := s.source.ReadAll(ctx, sourceTb)
	if err != nil {
		serr := syncErr(name, KindSync, err)
		s.LogSevere("failed to read source table", serr, "table", name)
		return serr
	}
	s.stats.RowsRead += int64(len(rows))

	if s.opts.SnapshotDir != "" {
		path, err := writeSnapshot(s.opts.SnapshotDir, sourceTb, rows)
		if err != nil {
			serr := syncErr(name, KindSync, err)
			s.LogSevere("failed to write table snapshot", serr, "table", name)
			return serr
		}
		s.LogInfo("wrote table snapshot", "table", name, "path", path)
	}

	targetTb, err := s.ensureTable(ctx, sourceTb)
	if err != nil {
		return err
	}

	inserted, updated, err := s.reconcile(ctx, sourceTb, targetTb, keyColumns, rows)
	if err != nil {
		return err
	}

	s.stats.TablesSynced++
	s.stats.RowsInserted += int64(inserted)
	s.stats.RowsUpdated += int64(updated)

	s.LogInfo("table synchronized", "table", name,
		"rows", len(rows), "inserted", inserted, "updated", updated)
	return nil
}

// ensureTable provisions the target table from the source definition when
// absent. It never alters an existing target table, whatever the diff says.
func (s *Synchronizer) ensureTable(ctx context.Context, sourceTb *schema.Table) (*schema.Table, error) {
	name := sourceTb.Name

	exists, err := s.target.TableExists(ctx, name)
	if err != nil {
		serr := syncErr(name, KindSync, err)
		s.LogSevere("failed to check target table", serr, "table", name)
		return nil, serr
	}

	if !exists {
		if err := s.target.CreateTable(ctx, sourceTb); err != nil {
			serr := syncErr(name, KindSync, err)
			s.LogSevere("failed to create target table", serr, "table", name)
			return nil, serr
		}
		s.LogInfo("created target table", "table", name)
	}

	targetTb, err := s.target.Introspect(ctx, name)
	if err != nil {
		serr := syncErr(name, KindIntrospection, err)
		s.LogSevere("failed to reflect target table", serr, "table", name)
		return nil, serr
	}
	return targetTb, nil
}

func (s *Synchronizer) reconcile(ctx context.Context, sourceTb, targetTb *schema.Table, keyColumns []string, rows []schema.Row) (inserted, updated int, err error) {
	name := sourceTb.Name

	tx, err := s.target.Begin(ctx)
	if err != nil {
		serr := syncErr(name, KindConnection, err)
		s.LogSevere("failed to open target transaction", serr, "table", name)
		return 0, 0, serr
	}
	committed := false
	defer func() {
		if !committed {
			if rerr := tx.Rollback(); rerr != nil {
				s.LogWarning("failed to roll back transaction", rerr, "table", name)
			}
		}
	}()

	// columns written on insert/update: the source columns the target has
	shared := sharedColumns(sourceTb, targetTb)

	for _, row := range rows {
		key := store.Key{Columns: keyColumns, Values: row.Key(keyColumns)}

		existing, found, err := tx.Lookup(ctx, targetTb, key)
		if err != nil {
			serr := syncErr(name, KindSync, err)
			s.LogSevere("failed to look up target row", serr, "table", name)
			return 0, 0, serr
		}

		switch s.opts.Policy {
		case PolicyAppend:
			if found && !rowChanged(shared, row, existing) {
				continue
			}
			if err := tx.Insert(ctx, name, shared, row); err != nil {
				serr := syncErr(name, KindSync, err)
				s.LogSevere("failed to insert row", serr, "table", name)
				return 0, 0, serr
			}
			inserted++

		default: // PolicyOverwrite
			if !found {
				if err := tx.Insert(ctx, name, shared, row); err != nil {
					serr := syncErr(name, KindSync, err)
					s.LogSevere("failed to insert row", serr, "table", name)
					return 0, 0, serr
				}
				inserted++
				continue
			}
			if !rowChanged(shared, row, existing) {
				continue
			}
			if err := tx.Update(ctx, name, shared, row, key); err != nil {
				serr := syncErr(name, KindSync, err)
				s.LogSevere("failed to update row", serr, "table", name)
				return 0, 0, serr
			}
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		serr := syncErr(name, KindSync, err)
		s.LogSevere("failed to commit transaction", serr, "table", name)
		return 0, 0, serr
	}
	committed = true
	return inserted, updated, nil
}

// sharedColumns returns the source columns also present in the target, in
// source declaration order.
func sharedColumns(sourceTb, targetTb *schema.Table) []string {
	var cols []string
	for _, c := range sourceTb.Columns {
		if _, ok := targetTb.Column(c.Name); ok {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// rowChanged reports whether any of the given columns differ between the
// source row and the matched target row.
func rowChanged(columns []string, source, target schema.Row) bool {
	for _, c := range columns {
		tv, ok := target[c]
		if !ok {
			continue
		}
		if !source[c].Equal(tv) {
			return true
		}
	}
	return false
}
