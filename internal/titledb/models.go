package titledb

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one title catalog row.
type Entry struct {
	ID           string
	Name         string
	Region       string
	Version      uint32
	UpdatedAt    time.Time
	LastDumpedAt *time.Time
}

var titleCaser = cases.Title(language.English)

// DisplayName returns the name prepared for human-facing output. Catalog
// feeds occasionally ship all-caps names; those are folded to title case,
// anything else passes through untouched.
func (e Entry) DisplayName() string {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return e.ID
	}
	if isShouting(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

func isShouting(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
