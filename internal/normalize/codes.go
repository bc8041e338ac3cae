package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Code trims whitespace, uppercases, and strips non-alphanumeric characters.
// Used for modality codes, which arrive with stray punctuation and casing.
func Code(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	return nonAlphanumeric.ReplaceAllString(s, "")
}
