// Package match reconciles weekly box office rows with catalogue movies.
package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonWord   = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	rerelease = regexp.MustCompile(`(?:.+\d{4}\sRe-release)|(?:.+\d{2}th\sAnniversary)|(?:.+4K\sRestoration)`)
)

// NormalizeTitle trims the title, collapses runs of non-word characters to
// a single space and lowercases the result; ß is kept, not expanded to ss.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = nonWord.ReplaceAllString(t, " ")
	// A Caser is stateful, so each call gets its own.
	return cases.Lower(language.Und).String(t)
}

// IsRerelease reports whether a release label names a re-release,
// anniversary edition or restoration.
func IsRerelease(label string) bool {
	return rerelease.MatchString(label)
}
