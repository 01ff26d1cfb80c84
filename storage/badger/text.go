package badger

import "strings"

// Stop words dropped from the keyword index and from keyword queries
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "what": true, "which": true, "who": true,
}

// tokenize splits text into words, lowercases, trims punctuation, and removes stop words.
func tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// termFrequencies counts each token.
func termFrequencies(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}

// fuzzyEntityMatch reports whether an indexed entity name matches a query
// entity: equal, or one contains the other when the shorter is at least
// three characters.
func fuzzyEntityMatch(indexed, query string) bool {
	if indexed == query {
		return true
	}
	shorter := min(len(indexed), len(query))
	if shorter < 3 {
		return false
	}
	return strings.Contains(indexed, query) || strings.Contains(query, indexed)
}
