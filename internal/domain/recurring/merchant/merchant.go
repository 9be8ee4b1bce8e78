// Package merchant canonicalizes free-text transaction descriptions into
// stable grouping keys. "POS DEBIT NETFLIX.COM 866-579-7172" and
// "NETFLIX.COM" must land in the same group.
package merchant

import (
	"regexp"
	"strings"
)

// Payment-rail boilerplate removed before grouping, matched as whole words.
var stopWords = regexp.MustCompile(`\b(pos|ach|debit|purchase|payment|pmt|pymt|online|card)\b`)

var (
	digits     = regexp.MustCompile(`[0-9]+`)
	nonAlpha   = regexp.MustCompile(`[^a-z\s]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// Normalize derives the grouping key for a description. It is total over
// all strings; an empty result means the description carries no stable
// merchant signal and the transaction should be excluded from grouping.
func Normalize(description string) string {
	key := strings.ToLower(description)
	key = stopWords.ReplaceAllString(key, " ")
	key = digits.ReplaceAllString(key, " ")
	key = nonAlpha.ReplaceAllString(key, " ")
	key = multiSpace.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// Display renders a key for humans: each token's first letter capitalized.
func Display(key string) string {
	words := strings.Split(key, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
