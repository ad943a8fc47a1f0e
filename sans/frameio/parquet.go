package frameio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

const readBatch = 128

// readTable reads every row of the parquet file at path.
func readTable[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frameio: open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("frameio: stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("frameio: open parquet %s: %w", path, err)
	}

	slog.Debug("parquet file opened", "path", path, "rows", pf.NumRows(), "row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	records := make([]T, 0, pf.NumRows())
	rows := make([]T, readBatch)

	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frameio: read %s: %w", path, err)
		}
	}

	return records, nil
}

// writeTable writes rows to a new parquet file at path.
func writeTable[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("frameio: create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[T](file)
	if _, err := w.Write(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("frameio: write %s: %w", path, err)
	}

	if err := w.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("frameio: finish %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("frameio: close %s: %w", path, err)
	}

	return nil
}
