package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownTitle is used when a source name carries no letters or digits.
const UnknownTitle = "Untitled"

// DeriveTitle turns a source path or URI into a display title:
// "/a/family_trip-2024.MOV" becomes "Family Trip 2024".
func DeriveTitle(source string) string {
	source = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(source), "file://"))
	if source == "" {
		return UnknownTitle
	}
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var cleaned strings.Builder
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return UnknownTitle
	}
	return cases.Title(language.Und).String(strings.ToLower(title))
}
