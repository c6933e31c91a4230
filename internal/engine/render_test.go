package engine

import (
	"strings"
	"testing"

	"github.com/careexpand/jira-insights/internal/models"
)

func TestRenderSummaryCompleteHeader(t *testing.T) {
	a := NewAggregator()
	s := a.Summarize(makeRecords("CCM", 3), 3, 3)

	text := renderSummary(s)
	if !strings.Contains(text, "Found 3 total items (complete dataset analyzed)") {
		t.Errorf("Expected complete header, got:\n%s", text)
	}
}

func TestRenderSummaryPartialHeader(t *testing.T) {
	a := NewAggregator()
	s := a.Summarize(makeRecords("CCM", 3), 10, 3)

	text := renderSummary(s)
	if !strings.Contains(text, "Showing segregations for 3 issues (out of 10 total)") {
		t.Errorf("Expected partial header, got:\n%s", text)
	}
}

func TestRenderSummaryListsSamplesAndRemainder(t *testing.T) {
	a := NewAggregator()
	records := makeRecords("CCM", 8)
	s := a.Summarize(records, 8, 8)

	text := renderSummary(s)
	if !strings.Contains(text, "CCM-1: Item 1") {
		t.Errorf("Expected first sample listed, got:\n%s", text)
	}
	if !strings.Contains(text, "... and 3 more items.") {
		t.Errorf("Expected remainder line, got:\n%s", text)
	}
}

func TestRenderComparisonWinnerAndShares(t *testing.T) {
	a := NewAggregator()
	c := a.Compare([]models.EntityResult{
		{Entity: "Ashwin", RetrievedCount: 7, ReportedTotal: 7, Records: makeRecords("A", 7)},
		{Entity: "Srikanth", RetrievedCount: 12, ReportedTotal: 12, Records: makeRecords("S", 12)},
	})

	text := renderComparison(c)
	if !strings.Contains(text, "**Winner**: Srikanth with 12 items") {
		t.Errorf("Expected winner line, got:\n%s", text)
	}
	if !strings.Contains(text, "5 more items than Ashwin") {
		t.Errorf("Expected margin line, got:\n%s", text)
	}
	if !strings.Contains(text, "Srikanth handles 63.2% of the workload") {
		t.Errorf("Expected share line, got:\n%s", text)
	}
}

func TestRenderComparisonTie(t *testing.T) {
	a := NewAggregator()
	c := a.Compare([]models.EntityResult{
		{Entity: "CCM", RetrievedCount: 4, Records: makeRecords("C", 4)},
		{Entity: "ENG", RetrievedCount: 4, Records: makeRecords("E", 4)},
	})

	text := renderComparison(c)
	if !strings.Contains(text, "**Tied**: Both CCM and ENG have 4 items") {
		t.Errorf("Expected tie line, got:\n%s", text)
	}
}

func TestRenderDocuments(t *testing.T) {
	hits := []models.Record{
		{Key: "1", Summary: "Insurance Guide", Space: "Operations", Excerpt: "Verify coverage"},
		{Key: "2", Summary: "EMR Setup", Space: "Clinical"},
	}

	text := renderDocuments(hits)
	if !strings.Contains(text, "**Found 2 Confluence pages:**") {
		t.Errorf("Expected page count header, got:\n%s", text)
	}
	if !strings.Contains(text, "1. Insurance Guide") {
		t.Errorf("Expected first title, got:\n%s", text)
	}
	if !strings.Contains(text, "Space: Operations") {
		t.Errorf("Expected space line, got:\n%s", text)
	}
}
