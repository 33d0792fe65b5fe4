package sync

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/VahDunn/synchron-class/internal/schema"
)

// snapshotNull is the CSV representation of a NULL value in snapshots.
const snapshotNull = "NULL"

// writeSnapshot dumps the table's rows to <dir>/<table>.csv.zst: a zstd
// stream carrying a CSV with a header row of column names. Returns the
// written path.
func writeSnapshot(dir string, tb *schema.Table, rows []schema.Row) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, tb.Name+".csv.zst")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}

	names := tb.ColumnNames()
	cw := csv.NewWriter(zw)

	if err := cw.Write(names); err != nil {
		return "", fmt.Errorf("failed to write snapshot header: %w", err)
	}

	record := make([]string, len(names))
	for _, row := range rows {
		for i, n := range names {
			v := row[n]
			if v.IsNull() {
				record[i] = snapshotNull
			} else {
				record[i] = v.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write snapshot record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to close zstd writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot file: %w", err)
	}
	return path, nil
}
