package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeKey is the comparison form of a header: trimmed and lower-cased.
// Inner whitespace is kept as is.
func NormalizeKey(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FirstRunes returns at most n leading runes of input.
func FirstRunes(input string, n int) string {
	r := []rune(input)
	if len(r) <= n {
		return input
	}
	return string(r[:n])
}
