package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

// ParseNumber coerces a cell to a float. Only plain decimal notation is
// accepted: thousands separators, percent signs, hex and non-finite values
// are rejected.
func ParseNumber(input string) (float64, bool) {
	token := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if token == "" || !decimalPattern.MatchString(token) {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return 0, false
	}
	return parsed, true
}

// FormatNumber renders v in the shortest decimal form: 500, 512.5.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
