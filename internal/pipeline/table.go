package pipeline

import "strings"

// HeaderPair is the two-level label of one column of a result sheet.
type HeaderPair struct {
	Top string
	Sub string
}

// RawTable is a decoded sheet whose columns carry a two-level header.
type RawTable struct {
	Headers []HeaderPair
	Rows    [][]string
}

// Table is a sheet with flat column names. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the leftmost column called name.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = cellAt(row, idx)
	}
	return out, true
}

func cellAt(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
