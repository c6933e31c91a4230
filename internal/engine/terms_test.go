package engine

import "testing"

func TestExtractSearchTermsStripsFillerAndStopWords(t *testing.T) {
	terms := extractSearchTerms("Can you show me the insurance eligibility guide, please?")

	want := []string{"insurance", "eligibility", "guide"}
	if len(terms) != len(want) {
		t.Fatalf("Expected %d terms, got %v", len(want), terms)
	}
	for i, term := range want {
		if terms[i] != term {
			t.Errorf("Expected term %d to be %s, got %s", i, term, terms[i])
		}
	}
}

func TestExtractSearchTermsCapsAtFive(t *testing.T) {
	terms := extractSearchTerms("alpha bravo charlie delta echo foxtrot golf")
	if len(terms) != 5 {
		t.Errorf("Expected at most 5 terms, got %v", terms)
	}
}

func TestExtractSearchTermsFallsBackToRawUtterance(t *testing.T) {
	terms := extractSearchTerms("a an the")
	if len(terms) != 1 || terms[0] != "a an the" {
		t.Errorf("Expected raw utterance fallback, got %v", terms)
	}
}
