// Package sheet reads and writes the CSV exports of the seller's tabular store.
//
// The pipeline never talks to the store itself: a sheet is read into a header
// row plus data rows, and the core package extracts records from those.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// MaxHeaderSearchRows is how far down the sheet the header row may start.
// Exports often carry a title or instructions row above it.
const MaxHeaderSearchRows = 10

// Options controls reading.
type Options struct {
	MaxBytes int64    // Zero disables the size cap
	Required []string // Header row is the first row containing all of these
}

// Table is a parsed sheet.
type Table struct {
	Header   []string
	Rows     [][]string
	FirstRow int // 1-based sheet row number of Rows[0]
}

// Read parses a CSV export. Rows keep their original width; short rows are
// handled by the header index.
func Read(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(wrap(r, opts.MaxBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headerAt := 0
	if len(opts.Required) > 0 {
		headerAt = findHeader(records, opts.Required)
		if headerAt < 0 {
			return nil, fmt.Errorf("invalid csv: header row not found (expected columns: %s)", strings.Join(opts.Required, ", "))
		}
	}

	return &Table{
		Header:   records[headerAt],
		Rows:     records[headerAt+1:],
		FirstRow: headerAt + 2,
	}, nil
}

// findHeader returns the index of the first row carrying every required column.
func findHeader(records [][]string, required []string) int {
	limit := min(len(records), MaxHeaderSearchRows)
	for i := 0; i < limit; i++ {
		idx := core.MakeHeaderIndex(records[i])
		found := true
		for _, col := range required {
			if !idx.Has(col) {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// WriteTemplate writes a header-only sheet.
func WriteTemplate(w io.Writer, header []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
