package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Key uppercases, collapses whitespace, and trims the input. Mapping-table
// lookups (client names, study descriptions) always go through Key so that
// spreadsheet formatting noise never defeats a match.
func Key(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	return multiSpace.ReplaceAllString(s, " ")
}
