// Package batch derives batch identifiers and the storage keys built from them.
package batch

import (
	"fmt"
	"strings"

	"placement/internal"
	"placement/internal/util"
)

var monthAbbreviations = map[string]string{
	"March":     "Mar",
	"September": "Sep",
}

// Months lists the month names accepted by the upload surfaces.
var Months = []string{"September", "March"}

func IsKnownMonth(month string) bool {
	_, ok := monthAbbreviations[month]
	return ok
}

// Abbreviate maps a month through the abbreviation table and otherwise keeps
// its first three characters.
func Abbreviate(month string) string {
	if abbr, ok := monthAbbreviations[month]; ok {
		return abbr
	}
	return util.FirstRunes(month, 3)
}

// Name returns the batch id {AbbreviatedMonth}_{Year}. The year is used verbatim.
func Name(month, year string) string {
	return Abbreviate(month) + "_" + year
}

func ArtifactKey(batchID, artifact string) string {
	return batchID + "/" + artifact
}

// ArtifactName is the object name of a slot's artifact. Workbook slots carry
// a course suffix (DAC or DBDA); other slots ignore it.
func ArtifactName(slot internal.Slot, course string) string {
	switch {
	case slot.IsResultSlot():
		return fmt.Sprintf("%s_Result.csv", slot)
	case slot.IsWorkbookSlot():
		return fmt.Sprintf("%s_%s.csv", slot, course)
	default:
		return fmt.Sprintf("%s.csv", slot)
	}
}

func MarkerKey(batchID string) string {
	return batchID + ".txt"
}

func MarkerBody(batchID string) string {
	return fmt.Sprintf("Batch %s upload complete", batchID)
}

// FilterFolders keeps folders matching search: a case-insensitive substring of
// the folder name, or an exact match on its month (abbreviated or full) or year.
func FilterFolders(folders []string, search string) []string {
	if search == "" {
		return folders
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	fullNames := make(map[string]string, len(monthAbbreviations))
	for full, abbr := range monthAbbreviations {
		fullNames[abbr] = full
	}

	out := []string{}
	for _, folder := range folders {
		if strings.Contains(strings.ToLower(folder), needle) {
			out = append(out, folder)
			continue
		}

		parts := strings.Split(folder, "_")
		if len(parts) != 2 {
			continue
		}
		month, year := parts[0], parts[1]
		full := month
		if v, ok := fullNames[month]; ok {
			full = v
		}
		if needle == strings.ToLower(month) || needle == strings.ToLower(full) || needle == strings.ToLower(year) {
			out = append(out, folder)
		}
	}
	return out
}
