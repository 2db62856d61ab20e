package graph

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTermLength is exclusive: a term must be longer than this many runes.
const minTermLength = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "a": true, "to": true, "of": true,
	"in": true, "is": true, "for": true, "with": true, "on": true,
}

// Terms returns the significant terms of a node's title and tags, lowercased,
// deduplicated and in first-occurrence order.
func Terms(n Node) []string {
	var b strings.Builder
	b.WriteString(n.Title)
	for _, t := range n.Tags {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	return ExtractTerms(b.String())
}

// ExtractTerms tokenizes text on any run of characters that are neither
// letters nor digits and keeps terms longer than three runes that are not
// stop words.
func ExtractTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minTermLength || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// sharedTerms returns the terms of a that also appear in b, in a's order.
func sharedTerms(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	var shared []string
	for _, t := range a {
		if inB[t] {
			shared = append(shared, t)
		}
	}
	return shared
}
