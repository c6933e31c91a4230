package engine

import (
	"regexp"
	"strings"
)

const maxSearchTerms = 5

var fillerPhrases = regexp.MustCompile(`(?i)\b(i need|i want|show me|find me|get me|give me|can you|please)\b`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true,
	"is": true, "are": true, "was": true, "were": true,
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// extractSearchTerms reduces an utterance to the words worth searching
// documentation for. Filler phrases, stop words and punctuation are
// stripped and at most five terms survive. If nothing survives, the
// raw utterance is returned so the search still has something to run.
func extractSearchTerms(utterance string) []string {
	cleaned := fillerPhrases.ReplaceAllString(utterance, " ")
	cleaned = nonWord.ReplaceAllString(cleaned, " ")

	var terms []string
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		if len(word) <= 1 || stopWords[word] {
			continue
		}
		terms = append(terms, word)
		if len(terms) == maxSearchTerms {
			break
		}
	}

	if len(terms) == 0 {
		return []string{strings.TrimSpace(utterance)}
	}
	return terms
}
