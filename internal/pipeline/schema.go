package pipeline

import (
	"strings"

	"placement/internal/util"
)

const (
	ColumnPRN        = "PRN"
	ColumnTotal800   = "Total800"
	ColumnPercentage = "CDAC_Percentage"
	ColumnGrade      = "Grade"
	ColumnResult     = "Result"
	ColumnAptiEC     = "Apti_EC_Grade"
	ColumnProject    = "Project_Grade"
)

// CanonicalSchema is the column layout of every stored result file.
var CanonicalSchema = []string{
	ColumnPRN,
	ColumnTotal800,
	ColumnPercentage,
	ColumnGrade,
	ColumnResult,
	ColumnAptiEC,
	ColumnProject,
}

func IsCanonicalColumn(name string) bool {
	for _, c := range CanonicalSchema {
		if c == name {
			return true
		}
	}
	return false
}

// isTotalPart selects the section totals that add up to Total800. This is a
// naming heuristic: any column mentioning "Total" other than Total800 itself.
func isTotalPart(name string) bool {
	return name != ColumnTotal800 && strings.Contains(name, "Total")
}

// MapToCanonical renames columns through lookup, fills missing canonical
// columns with blanks, recomputes Total800 from the section totals and
// projects onto CanonicalSchema.
func MapToCanonical(t *Table, lookup *LookupTable) *Table {
	renamed := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		if target, ok := lookup.Resolve(col); ok {
			renamed[i] = target
			continue
		}
		renamed[i] = col
	}

	source := make(map[string]int, len(CanonicalSchema))
	var parts []int
	for i, col := range renamed {
		if _, seen := source[col]; !seen && IsCanonicalColumn(col) {
			source[col] = i
		}
		if isTotalPart(col) {
			parts = append(parts, i)
		}
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(CanonicalSchema))
		for c, col := range CanonicalSchema {
			if col == ColumnTotal800 {
				out[c] = sumCells(row, parts)
				continue
			}
			if idx, ok := source[col]; ok {
				out[c] = cellAt(row, idx)
			}
		}
		rows[r] = out
	}

	return &Table{Columns: append([]string(nil), CanonicalSchema...), Rows: rows}
}

func sumCells(row []string, idx []int) string {
	total := 0.0
	for _, i := range idx {
		if v, ok := util.ParseNumber(cellAt(row, i)); ok {
			total += v
		}
	}
	return util.FormatNumber(total)
}
