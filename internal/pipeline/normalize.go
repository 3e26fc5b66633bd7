package pipeline

import (
	"fmt"
	"strings"
)

// JoinHeader flattens a two-level label:
//
//	top and sub present -> "top_sub"
//	only sub present    -> "sub"
//	otherwise           -> "top"
//
// Both labels are trimmed. The function is total and pure.
func JoinHeader(top, sub string) string {
	top = strings.TrimSpace(top)
	sub = strings.TrimSpace(sub)
	switch {
	case top != "" && sub != "":
		return top + "_" + sub
	case sub != "":
		return sub
	default:
		return top
	}
}

// NormalizeHeaders replaces the two-level header with flat column names.
// Rows are shared with raw, columns are neither dropped nor reordered.
func NormalizeHeaders(raw *RawTable) *Table {
	columns := make([]string, len(raw.Headers))
	for i, h := range raw.Headers {
		columns[i] = JoinHeader(h.Top, h.Sub)
	}
	return &Table{Columns: columns, Rows: raw.Rows}
}

// fillHeaderRows forward-fills blank labels of a multi-row header the way
// merged header cells are read: each level is filled from the left, and a
// level only inherits across columns whose upper labels were themselves
// blank. Leading blanks stay blank.
func fillHeaderRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	control := make([]bool, width)
	for i := range control {
		control[i] = true
	}

	out := make([][]string, len(rows))
	for r, row := range rows {
		filled := padRow(row, width)
		last := ""
		if width > 0 {
			last = filled[0]
		}
		for i := 1; i < width; i++ {
			if !control[i] {
				last = filled[i]
			}
			if strings.TrimSpace(filled[i]) == "" {
				filled[i] = last
			} else {
				control[i] = false
				last = filled[i]
			}
		}
		out[r] = filled
	}
	return out
}

// headerNames names a single header row: blank cells become "Unnamed: i" and
// repeated names get ".1", ".2" suffixes.
func headerNames(row []string) []string {
	names := make([]string, len(row))
	for i, name := range row {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}

	counts := map[string]int{}
	for i, col := range names {
		cur := counts[col]
		for cur > 0 {
			counts[col] = cur + 1
			col = fmt.Sprintf("%s.%d", col, cur)
			cur = counts[col]
		}
		names[i] = col
		counts[col] = cur + 1
	}
	return names
}
