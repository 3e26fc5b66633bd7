package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// EncodeCSV writes the header row followed by every data row.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(padRow(row, len(t.Columns))); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeXLSX renders the table on the first sheet of a new workbook.
func EncodeXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	set := func(col, row int, value string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, value)
	}

	for i, h := range t.Columns {
		if err := set(i+1, 1, h); err != nil {
			return nil, err
		}
	}
	for r, row := range t.Rows {
		for c := range t.Columns {
			if v := cellAt(row, c); v != "" {
				if err := set(c+1, r+2, v); err != nil {
					return nil, err
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportTable writes t to outputPath as CSV, or as XLSX when the path ends
// in .xlsx.
func ExportTable(t *Table, outputPath string) error {
	var (
		body []byte
		err  error
	)
	if filepath.Ext(outputPath) == ".xlsx" {
		body, err = EncodeXLSX(t)
	} else {
		body, err = EncodeCSV(t)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, body, 0o644)
}
