// Package csvutil provides a small streaming CSV writer for the admin
// exports. Escaping follows the usual rule: fields containing a comma,
// quote or newline are wrapped in double quotes and embedded quotes are
// doubled (encoding/csv implements exactly this).
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer streams CSV rows with a fixed header
type Writer struct {
	w      *csv.Writer
	fields int
}

// NewWriter creates a writer and emits the header row immediately
func NewWriter(out io.Writer, header []string) (*Writer, error) {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &Writer{w: w, fields: len(header)}, nil
}

// WriteRow writes one data row. The field count must match the header.
func (w *Writer) WriteRow(fields ...string) error {
	if len(fields) != w.fields {
		return fmt.Errorf("csv row has %d fields, header has %d", len(fields), w.fields)
	}
	if err := w.w.Write(fields); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

// Flush flushes buffered rows and reports any deferred write error
func (w *Writer) Flush() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
