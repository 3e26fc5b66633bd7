package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatXLSX      Format = "xlsx"
	FormatHTML      Format = "html"
	FormatCSV       Format = "csv"
	FormatLegacyXLS Format = "xls"
	FormatUnknown   Format = "unknown"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	utf8BOM  = []byte("\xEF\xBB\xBF")
)

// DetectFormat sniffs the container format from the leading bytes, falling
// back to the file extension only for CSV. Portal ".xls" downloads are often
// HTML tables and are recognised as such.
func DetectFormat(name string, content []byte) Format {
	switch {
	case bytes.HasPrefix(content, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(content, oleMagic):
		return FormatLegacyXLS
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(content, utf8BOM))
	if bytes.HasPrefix(trimmed, []byte("<")) {
		lower := bytes.ToLower(trimmed)
		if bytes.Contains(lower, []byte("<table")) {
			return FormatHTML
		}
	}

	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatUnknown
}
