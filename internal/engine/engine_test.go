package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/careexpand/jira-insights/internal/config"
	"github.com/careexpand/jira-insights/internal/models"
)

// jqlSearcher serves a canned page per JQL string.
type jqlSearcher struct {
	pages map[string]*models.SearchPage
	err   error
}

func (f *jqlSearcher) Search(ctx context.Context, jql string, maxResults int, fields []string, startAt int) (*models.SearchPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[jql]; ok {
		return page, nil
	}
	return &models.SearchPage{Records: []models.Record{}, Paginated: true}, nil
}

// fakeDocs serves canned hits per search term and records the terms
// it was asked for.
type fakeDocs struct {
	hits  map[string][]models.Record
	terms []string
}

func (f *fakeDocs) Search(ctx context.Context, terms string, limit int) ([]models.Record, error) {
	f.terms = append(f.terms, terms)
	return f.hits[terms], nil
}

// fakeLLM returns a fixed completion or error.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.response, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		AssigneeAliases: map[string]string{"ashwin": "Ashwin Thyagarajan"},
	}
}

func TestProcessQueryTrackerPath(t *testing.T) {
	searcher := &jqlSearcher{pages: map[string]*models.SearchPage{
		`issuetype = "Bug" AND status != "Done" ORDER BY updated DESC`: {
			Records:       makeRecords("CCM", 3),
			ReportedTotal: 3,
			Paginated:     true,
		},
	}}
	e := New(testConfig(), searcher, nil, nil, nil)

	answer := e.ProcessQuery(context.Background(), "show me open bugs")

	if !answer.Success {
		t.Fatalf("Expected success, got %+v", answer)
	}
	if answer.Source != models.SourceTracker {
		t.Errorf("Expected source tracker, got %s", answer.Source)
	}
	summary, ok := answer.Data.(*models.Summary)
	if !ok {
		t.Fatalf("Expected summary data, got %T", answer.Data)
	}
	if summary.Retrieved != 3 {
		t.Errorf("Expected 3 retrieved, got %d", summary.Retrieved)
	}
	if e.context.Len() != 1 {
		t.Errorf("Expected 1 recorded turn, got %d", e.context.Len())
	}
}

func TestProcessQueryEmptyUtterance(t *testing.T) {
	e := New(testConfig(), &jqlSearcher{}, nil, nil, nil)

	answer := e.ProcessQuery(context.Background(), "   ")

	if answer.Success {
		t.Error("Expected failure for an empty question")
	}
	if e.context.Len() != 0 {
		t.Errorf("Expected no recorded turns, got %d", e.context.Len())
	}
}

func TestProcessQueryDocumentHits(t *testing.T) {
	docs := &fakeDocs{hits: map[string][]models.Record{
		"insurance eligibility": {
			{Key: "12345", Summary: "Insurance Eligibility Guide", Space: "Operations"},
		},
	}}
	e := New(testConfig(), &jqlSearcher{}, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "show me insurance eligibility")

	if answer.Source != models.SourceDocuments {
		t.Fatalf("Expected source documents, got %s", answer.Source)
	}
	if !answer.Success {
		t.Error("Expected success")
	}
	hits, ok := answer.Data.([]models.Record)
	if !ok || len(hits) != 1 {
		t.Fatalf("Expected 1 document hit, got %v", answer.Data)
	}
}

func TestProcessQueryKeywordSearchDeduplicates(t *testing.T) {
	shared := models.Record{Key: "777", Summary: "Lab Results Portal", Space: "Clinical"}
	docs := &fakeDocs{hits: map[string][]models.Record{
		"lab":     {shared},
		"results": {shared, {Key: "888", Summary: "Results Archive", Space: "Clinical"}},
	}}
	e := New(testConfig(), &jqlSearcher{}, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "lab results")

	hits, ok := answer.Data.([]models.Record)
	if !ok {
		t.Fatalf("Expected document hits, got %T", answer.Data)
	}
	if len(hits) != 2 {
		t.Errorf("Expected 2 de-duplicated hits, got %d", len(hits))
	}
	if len(docs.terms) != 3 {
		t.Errorf("Expected full search then 2 keyword searches, got %v", docs.terms)
	}
}

func TestProcessQueryDocumentFallbackToTracker(t *testing.T) {
	docs := &fakeDocs{hits: map[string][]models.Record{}}
	searcher := &jqlSearcher{pages: map[string]*models.SearchPage{
		"ORDER BY updated DESC": {
			Records:       makeRecords("CCM", 2),
			ReportedTotal: 2,
			Paginated:     true,
		},
	}}
	e := New(testConfig(), searcher, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "emr")

	if answer.Source != models.SourceTrackerFallback {
		t.Fatalf("Expected tracker fallback, got %s", answer.Source)
	}
	if !answer.Success {
		t.Error("Expected success")
	}
}

func TestProcessQueryFallbackUsesAnalyzedQuery(t *testing.T) {
	analysis := `{
		"intent": "assignee_work",
		"jql": "assignee = \"Ashwin Thyagarajan\"",
		"response_type": "list",
		"entities": {"assignee": "Ashwin Thyagarajan"}
	}`
	docs := &fakeDocs{hits: map[string][]models.Record{}}
	searcher := &jqlSearcher{pages: map[string]*models.SearchPage{
		`assignee = "Ashwin Thyagarajan"`: {
			Records:       makeRecords("CCM", 3),
			ReportedTotal: 3,
			Paginated:     true,
		},
	}}
	llmClient := &fakeLLM{response: analysis}
	e := New(testConfig(), searcher, nil, docs, llmClient)

	answer := e.ProcessQuery(context.Background(), "emr")

	if answer.Source != models.SourceTrackerFallback {
		t.Fatalf("Expected tracker fallback, got %s", answer.Source)
	}
	if answer.JQL != `assignee = "Ashwin Thyagarajan"` {
		t.Errorf("Expected the analyzed JQL to run on fallback, got %s", answer.JQL)
	}
	if llmClient.calls < 2 {
		t.Errorf("Expected query analysis before answer generation, got %d LLM calls", llmClient.calls)
	}
}

func TestProcessQueryFallbackErrorWhenTrackerFails(t *testing.T) {
	docs := &fakeDocs{hits: map[string][]models.Record{}}
	searcher := &jqlSearcher{err: fmt.Errorf("503 from tracker")}
	e := New(testConfig(), searcher, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "emr")

	if answer.Source != models.SourceFallbackError {
		t.Fatalf("Expected fallback error source, got %s", answer.Source)
	}
	if answer.Success {
		t.Error("Expected failure when the fallback query errors")
	}
	if e.context.Len() != 0 {
		t.Errorf("Expected no recorded turns, got %d", e.context.Len())
	}
}

func TestProcessQueryNothingFoundAnywhere(t *testing.T) {
	docs := &fakeDocs{hits: map[string][]models.Record{}}
	e := New(testConfig(), &jqlSearcher{}, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "emr")

	if answer.Source != models.SourceNoResults {
		t.Fatalf("Expected no-results source, got %s", answer.Source)
	}
	if answer.Success {
		t.Error("Expected failure when nothing matched anywhere")
	}
}

func TestProcessQueryFallbackTermBroadensSearch(t *testing.T) {
	cfg := testConfig()
	cfg.ConfluenceFallbackTerm = "insurance eligibility"
	docs := &fakeDocs{hits: map[string][]models.Record{
		"insurance eligibility": {
			{Key: "12345", Summary: "Insurance Eligibility Guide", Space: "Operations"},
		},
	}}
	e := New(cfg, &jqlSearcher{}, nil, docs, nil)

	answer := e.ProcessQuery(context.Background(), "emr")

	if answer.Source != models.SourceDocuments {
		t.Fatalf("Expected broadened search to find documents, got %s", answer.Source)
	}
}

func TestProcessQueryComparison(t *testing.T) {
	analysis := `{
		"intent": "assignee_comparison",
		"jql": ["assignee = \"Ashwin Thyagarajan\"", "assignee = \"Srikanth Chitturi\""],
		"response_type": "comparison",
		"entities": {"entity1": "Ashwin Thyagarajan", "entity2": "Srikanth Chitturi"}
	}`
	searcher := &jqlSearcher{pages: map[string]*models.SearchPage{
		`assignee = "Ashwin Thyagarajan"`: {Records: makeRecords("A", 4), ReportedTotal: 4, Paginated: true},
		`assignee = "Srikanth Chitturi"`:  {Records: makeRecords("S", 9), ReportedTotal: 9, Paginated: true},
	}}
	llmClient := &fakeLLM{response: analysis}
	e := New(testConfig(), searcher, nil, nil, llmClient)

	answer := e.ProcessQuery(context.Background(), "compare ashwin and srikanth")

	comparison, ok := answer.Data.(*models.Comparison)
	if !ok {
		t.Fatalf("Expected comparison data, got %T", answer.Data)
	}
	if comparison.Winner != "Srikanth Chitturi" {
		t.Errorf("Expected Srikanth Chitturi to win, got %s", comparison.Winner)
	}
	if comparison.Margin != 5 {
		t.Errorf("Expected margin 5, got %d", comparison.Margin)
	}
	if answer.JQL != `assignee = "Ashwin Thyagarajan" | assignee = "Srikanth Chitturi"` {
		t.Errorf("Unexpected combined JQL: %s", answer.JQL)
	}
	turn := e.context.Recent(1)[0]
	if turn.ResultCount != 13 {
		t.Errorf("Expected recorded turn to count both entities, got %d", turn.ResultCount)
	}
}

func TestGenerationFailureFallsBackToRenderedText(t *testing.T) {
	searcher := &jqlSearcher{pages: map[string]*models.SearchPage{
		"ORDER BY updated DESC": {Records: makeRecords("CCM", 2), ReportedTotal: 2, Paginated: true},
	}}
	llmClient := &fakeLLM{err: fmt.Errorf("rate limited")}
	e := New(testConfig(), searcher, nil, nil, llmClient)

	// The builder's LLM pass fails too, so the deterministic fallback
	// query runs and the rendered summary becomes the answer.
	answer := e.ProcessQuery(context.Background(), "what changed recently")

	if !answer.Success {
		t.Fatalf("Expected success, got %+v", answer)
	}
	if answer.Response == "" {
		t.Fatal("Expected a rendered answer")
	}
}

func TestSeedPairsTranscriptTurns(t *testing.T) {
	e := New(testConfig(), &jqlSearcher{}, nil, nil, nil)

	e.Seed([]models.TranscriptMessage{
		{Role: "user", Content: "how many bugs?"},
		{Role: "assistant", Content: "There are 4 bugs."},
		{Role: "user", Content: "dangling question with no reply"},
	})

	if e.context.Len() != 1 {
		t.Fatalf("Expected 1 seeded turn, got %d", e.context.Len())
	}
	turn := e.context.Recent(1)[0]
	if turn.Utterance != "how many bugs?" {
		t.Errorf("Expected seeded utterance, got %s", turn.Utterance)
	}
	if turn.Answer != "There are 4 bugs." {
		t.Errorf("Expected seeded answer, got %s", turn.Answer)
	}
}
