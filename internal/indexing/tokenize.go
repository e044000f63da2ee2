// Package indexing prepares ranked Webpage rows for the search store:
// lowercasing, tokenizing, stopword filtering, and Porter-style stemming.
package indexing

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/english"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopwords is a fixed English stopword list.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"will": true, "with": true, "this": true, "but": true, "they": true,
	"have": true, "had": true, "what": true, "when": true, "where": true,
	"who": true, "which": true, "or": true, "not": true, "can": true,
	"could": true, "would": true, "should": true, "there": true, "their": true,
}

// Tokenize lowercases, whitespace/punctuation-splits, drops stopwords, and
// stems the remainder with the Porter-style English algorithm.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if stopwords[tok] {
			continue
		}
		stemmed := english.Stem(tok, true)
		if stemmed == "" {
			stemmed = tok
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// MergeKeepOrder returns primary followed by the tokens of extra that are
// not already present in primary, preserving relative order.
func MergeKeepOrder(primary, extra []string) []string {
	seen := make(map[string]bool, len(primary))
	for _, t := range primary {
		seen[t] = true
	}
	out := make([]string, len(primary), len(primary)+len(extra))
	copy(out, primary)
	for _, t := range extra {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
