package schema

// DiffResult lists the column-level differences between the source and
// target definitions of the same named table. It is advisory only: nothing
// in the sync path acts on it beyond logging.
type DiffResult struct {
	Added    []string // present in source, absent in target
	Modified []string // present in both, differing declared type
	Removed  []string // present in target, absent in source
}

// Empty reports whether the two definitions matched.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Diff compares two definitions of the same table by column name and
// declared type. Type comparison is textual: two compatible types spelled
// differently are reported as modified.
func Diff(source, target *Table) DiffResult {
	var d DiffResult

	targetCols := make(map[string]Column, len(target.Columns))
	for _, c := range target.Columns {
		targetCols[c.Name] = c
	}
	sourceCols := make(map[string]struct{}, len(source.Columns))
	for _, c := range source.Columns {
		sourceCols[c.Name] = struct{}{}
	}

	for _, sc := range source.Columns {
		tc, ok := targetCols[sc.Name]
		if !ok {
			d.Added = append(d.Added, sc.Name)
		} else if sc.Type != tc.Type {
			d.Modified = append(d.Modified, sc.Name)
		}
	}

	for _, tc := range target.Columns {
		if _, ok := sourceCols[tc.Name]; !ok {
			d.Removed = append(d.Removed, tc.Name)
		}
	}

	return d
}
