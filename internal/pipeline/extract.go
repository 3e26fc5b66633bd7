package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"placement/internal"
	"placement/internal/util"
)

// DecodeRawTable reads the first sheet of a result file using its first two
// rows as a two-level header. Workbook cells are read as stored, not as
// displayed, so number formats never leak into the marks.
func DecodeRawTable(file internal.UploadFile) (*RawTable, error) {
	grid, err := loadGrid(file, "", true)
	if err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return nil, &DecodeError{File: file.Name, Err: errors.New("result sheet needs two header rows")}
	}

	width := gridWidth(grid)
	if width == 0 {
		return nil, &DecodeError{File: file.Name, Err: errors.New("sheet is empty")}
	}

	header := fillHeaderRows([][]string{padRow(grid[0], width), padRow(grid[1], width)})
	pairs := make([]HeaderPair, width)
	for i := 0; i < width; i++ {
		top, sub := header[0][i], header[1][i]
		if util.IsBlank(top) && util.IsBlank(sub) {
			top = fmt.Sprintf("Unnamed: %d_level_0", i)
		}
		pairs[i] = HeaderPair{Top: top, Sub: sub}
	}

	return &RawTable{Headers: pairs, Rows: dataRows(grid[2:], width)}, nil
}

// DecodeTable reads one sheet with a single header row. A blank sheet name
// selects the first sheet.
func DecodeTable(file internal.UploadFile, sheet string) (*Table, error) {
	grid, err := loadGrid(file, sheet, false)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return &Table{Columns: []string{}, Rows: [][]string{}}, nil
	}

	width := gridWidth(grid)
	return &Table{
		Columns: headerNames(padRow(grid[0], width)),
		Rows:    dataRows(grid[1:], width),
	}, nil
}

// loadGrid decodes one sheet. rawValues only affects workbooks: it reads
// stored cell values instead of their formatted text.
func loadGrid(file internal.UploadFile, sheet string, rawValues bool) ([][]string, error) {
	if len(file.Content) == 0 {
		return nil, &DecodeError{File: file.Name, Sheet: sheet, Err: errors.New("file is empty")}
	}

	var (
		grid [][]string
		err  error
	)
	switch DetectFormat(file.Name, file.Content) {
	case FormatXLSX:
		grid, err = readXLSXGrid(file.Content, sheet, rawValues)
	case FormatHTML:
		if sheet != "" {
			err = sheetNotFound(sheet)
			break
		}
		grid, err = parseHTMLGrid(file.Content)
	case FormatCSV:
		if sheet != "" {
			err = sheetNotFound(sheet)
			break
		}
		grid, err = readCSVGrid(file.Content)
	case FormatLegacyXLS:
		err = errors.New("legacy binary .xls workbooks are not supported, save the file as .xlsx")
	default:
		err = errors.New("unrecognized spreadsheet format")
	}
	if err != nil {
		return nil, &DecodeError{File: file.Name, Sheet: sheet, Err: err}
	}
	return grid, nil
}

func readXLSXGrid(content []byte, sheet string, rawValues bool) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	target := sheets[0]
	if sheet != "" {
		found := false
		for _, name := range sheets {
			if name == sheet {
				found = true
				break
			}
		}
		if !found {
			return nil, sheetNotFound(sheet)
		}
		target = sheet
	}

	return f.GetRows(target, excelize.Options{RawCellValue: rawValues})
}

func readCSVGrid(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func sheetNotFound(sheet string) error {
	return fmt.Errorf("worksheet named %q not found", sheet)
}

func gridWidth(grid [][]string) int {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// dataRows pads every row to width and drops rows with no content.
func dataRows(rows [][]string, width int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		out = append(out, padRow(row, width))
	}
	return out
}
