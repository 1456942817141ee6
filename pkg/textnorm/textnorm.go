// Package textnorm normalises free text coming from clients before it is
// stored: names are trimmed and put in Unicode NFC form so that the same
// Romanian diacritic typed as a precomposed or combining sequence compares
// equal in the database.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Clean trims surrounding whitespace and converts s to NFC.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Fold returns the case-folded NFC form of s, suitable as a comparison key.
func Fold(s string) string {
	return cases.Fold().String(Clean(s))
}

// Set returns the cleaned, non-empty values of items in first-seen order with
// case-insensitive duplicates removed. The first spelling of a value wins.
func Set(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		v := Clean(it)
		if v == "" {
			continue
		}
		key := Fold(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// JoinSet renders a set with the given separator after passing it through Set.
func JoinSet(items []string, sep string) string {
	return strings.Join(Set(items), sep)
}

// SplitSet parses a delimited string back into a set.
func SplitSet(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return Set(strings.Split(s, strings.TrimSpace(sep)))
}
