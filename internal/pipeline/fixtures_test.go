package pipeline

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	return mkWorkbook([]string{"Sheet1"}, [][][]any{rows})
}

// mkWorkbook builds a workbook with one sheet per name, in order.
func mkWorkbook(names []string, sheets [][][]any) []byte {
	f := excelize.NewFile()
	for i, name := range names {
		if i == 0 {
			_ = f.SetSheetName(f.GetSheetName(0), name)
		} else {
			_, _ = f.NewSheet(name)
		}
		for r, row := range sheets[i] {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				_ = f.SetCellValue(name, cell, v)
			}
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

// dacResultSheet is a DAC result export: merged section labels on the first
// row, field labels on the second.
func dacResultSheet() []byte {
	return mkXLSX([][]any{
		{nil, "Web-Based Java Programming", nil, "Database Technologies", "Total", nil, nil, nil, nil, nil},
		{"PRN", "Theory", "Section Total", "Section Total", "800", "%", "Grade", "Result", "Apti & EC Grade", "Project Grade"},
		{"240340120001", 150, 300, 200, 999, "62.5", "B", "Pass", "A", "A+"},
		{"240340120002", 100, "AB", "250.5", 350, "43.8", "C", "Pass", "B", "B"},
	})
}

func dbdaResultSheet() []byte {
	return mkXLSX([][]any{
		{nil, "Practical Machine learning", nil, nil, nil, nil, nil},
		{"PRN", "Lab Total", "Total/600", "%", "Grade", "Result", "Project Grade"},
		{"240341220001", 420, 420, "70", "A", "Pass", "A"},
	})
}

// styledResultSheet carries number formats on its marks: B3 "#,##0.00",
// C3 "0" and D3 "0.00%".
func styledResultSheet() []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{nil, "Web-Based Java Programming", "Database Technologies", "Total"},
		{"PRN", "Section Total", "Section Total", "%"},
		{"240340120001", 1234.5, 299.75, 0.755},
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	for cell, numFmt := range map[string]int{"B3": 4, "C3": 1, "D3": 10} {
		style, _ := f.NewStyle(&excelize.Style{NumFmt: numFmt})
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}
