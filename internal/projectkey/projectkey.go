// Package projectkey derives project keys and display names from directory names.
package projectkey

import (
	"regexp"
	"strings"
	"unicode"
)

// Fallback is the key used when a name has no usable characters.
const Fallback = "UNK"

var (
	disallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
	separators = regexp.MustCompile(`[-_ ]+`)
)

// Generate derives a project key from name.
//
// Names with several parts separated by '-', '_' or spaces become the acronym
// of their first letters ("jira-dev-ai" -> "JDA"); a single part keeps its
// first four characters ("backend" -> "BACK"). Keys shorter than two
// characters are padded with "PRJ" and cut to three.
func Generate(name string) string {
	var parts []string
	for _, part := range separators.Split(disallowed.ReplaceAllString(name, ""), -1) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return Fallback
	}

	var key []rune
	if len(parts) > 1 {
		for _, part := range parts {
			key = append(key, []rune(part)[0])
		}
	} else {
		key = []rune(parts[0])
		if len(key) > 4 {
			key = key[:4]
		}
	}

	upper := []rune(strings.ToUpper(string(key)))
	if len(upper) < 2 {
		upper = append(upper, []rune("PRJ")...)[:3]
	}
	return string(upper)
}

// DisplayName turns a directory name into a project name: '-' and '_' become
// spaces and every word is title-cased ("my_cool-app" -> "My Cool App").
func DisplayName(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	var b strings.Builder
	prevLetter := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
