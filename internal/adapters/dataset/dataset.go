// Package dataset loads and describes the census income dataset.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("dataset: no header row")

// Value is a dynamically typed cell.
type Value struct {
	Raw     string
	Num     float64
	IsNum   bool
	Missing bool
}

// String returns the canonical text of the cell.
func (v Value) String() string {
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Raw
}

func parseValue(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Value{Missing: true}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{Raw: s, Num: f, IsNum: true}
	}
	return Value{Raw: s}
}

// Table is a parsed dataset with columns in header order.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// Get returns the value of column col in row i.
func (t *Table) Get(i int, col string) (Value, bool) {
	for j, c := range t.Columns {
		if c == col {
			return t.Rows[i][j], true
		}
	}
	return Value{}, false
}

// LoadFile reads a CSV file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load parses a header-first CSV. Blank lines are skipped; short rows are
// padded with missing cells and extra cells are ignored.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: parse header: %w", err)
	}

	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(h)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: parse: %w", err)
		}

		row := make([]Value, len(t.Columns))
		for j := range row {
			if j < len(record) {
				row[j] = parseValue(record[j])
			} else {
				row[j] = Value{Missing: true}
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
