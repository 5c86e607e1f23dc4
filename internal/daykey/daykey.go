// Package daykey canonicalizes the date encodings that different client
// versions have written into progress records. The canonical form is a
// compact UTC calendar day, e.g. "20260831".
package daykey

import (
	"strings"
	"time"
)

// Layout is the canonical compact day key layout.
const Layout = "20060102"

// FromTime returns the canonical day key for the UTC day containing t.
func FromTime(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Normalize converts any stored "day completed" representation into the
// canonical compact key. Accepted inputs: an already-canonical compact key,
// a dashed date ("2006-01-02"), or an RFC3339 timestamp. Returns ok=false
// for anything else; it never panics.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(Layout, s); err == nil {
		// Round-trip to reject inputs like "20261345" that time.Parse
		// would otherwise normalize into a different day.
		if t.Format(Layout) == s {
			return s, true
		}
		return "", false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC().Format(Layout), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), true
	}
	return "", false
}
