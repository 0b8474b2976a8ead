package search

import (
	"strings"
	"unicode"
)

// Stop words to filter out before comparing token sets
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "how": true, "what": true, "can": true, "i": true,
	"my": true, "me": true, "or": true, "does": true, "where": true, "when": true,
	"which": true, "who": true, "we": true, "our": true, "your": true, "there": true,
}

// normalizeText lowercases text, turns punctuation into spaces and collapses
// whitespace.
func normalizeText(text string) string {
	return strings.Join(splitWords(text), " ")
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenizeAndFilter splits text into lowercase words and removes stop words.
// When every word is a stop word the unfiltered words are returned so short
// questions still compare.
func tokenizeAndFilter(text string) []string {
	words := splitWords(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	if len(filtered) == 0 {
		return words
	}
	return filtered
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// tokenDice is the Dice coefficient of two token sets.
func tokenDice(a, b []string) float32 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	shared := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			shared++
		}
	}
	return 2 * float32(shared) / float32(len(sa)+len(sb))
}

// bigrams counts the character bigrams of an already normalized string.
func bigrams(s string) map[string]int {
	runes := []rune(s)
	out := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}

// bigramDice is the Dice coefficient of two bigram multisets.
func bigramDice(a, b string) float32 {
	ba, bb := bigrams(a), bigrams(b)
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	if total == 0 {
		return 0
	}
	shared := 0
	for g, n := range ba {
		shared += min(n, bb[g])
	}
	return 2 * float32(shared) / float32(total)
}

// coverage is the fraction of query tokens present in set.
func coverage(query []string, set map[string]struct{}) float32 {
	q := tokenSet(query)
	if len(q) == 0 {
		return 0
	}
	hits := 0
	for t := range q {
		if _, ok := set[t]; ok {
			hits++
		}
	}
	return float32(hits) / float32(len(q))
}

// minPartialLen is the shortest token allowed to match by prefix.
const minPartialLen = 4

// partialMatch reports whether token shares a prefix relation with any word
// of set, such as "employee" and "employees".
func partialMatch(token string, set map[string]struct{}) bool {
	if len(token) < minPartialLen {
		return false
	}
	for w := range set {
		if len(w) < minPartialLen {
			continue
		}
		if strings.HasPrefix(w, token) || strings.HasPrefix(token, w) {
			return true
		}
	}
	return false
}
