package screenshot

import (
	"regexp"
	"strings"
)

// MaxTitleRunes caps the sanitized file stem.
const MaxTitleRunes = 100

var (
	// illegalChars are characters not allowed in file names on common platforms.
	illegalChars    = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a user title into a safe file stem:
// 1. Trim leading/trailing whitespace
// 2. Strip <>:"/\|?*
// 3. Replace whitespace runs with a single underscore
// 4. Cap at MaxTitleRunes runes
//
// The result may be empty.
func SanitizeTitle(title string) string {
	s := strings.TrimSpace(title)
	s = illegalChars.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, "_")

	runes := []rune(s)
	if len(runes) > MaxTitleRunes {
		runes = runes[:MaxTitleRunes]
	}
	return string(runes)
}
