package engine

import (
	"context"
	"strings"

	"github.com/careexpand/jira-insights/internal/jira"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

// pageSize is the fixed full-fetch page size.
const pageSize = 100

// countOnlyIntents trigger count mode regardless of the query text.
var countOnlyIntents = map[string]bool{
	models.IntentCountItems: true,
	"story_count":           true,
	"issue_count":           true,
}

// Executor drives one structured query against the tracker: count-only
// when only a number is wanted, exhaustive pagination otherwise. All
// transport and parse failures are converted into a zero-result
// FetchResult carrying an error string; Execute never panics or
// returns an error value.
type Executor struct {
	search jira.Searcher
}

// NewExecutor creates an executor over the given search gateway.
func NewExecutor(search jira.Searcher) *Executor {
	return &Executor{search: search}
}

// Execute runs the query and returns the reconciled fetch result.
// ReportedTotal is the remote authoritative count from the first page;
// RetrievedCount is what was actually fetched and kept. The two are
// never reconciled against each other.
func (e *Executor) Execute(ctx context.Context, query models.StructuredQuery) models.FetchResult {
	if isCountOnly(query) {
		return e.executeCount(ctx, query.JQL)
	}
	return e.executeFull(ctx, query.JQL)
}

// isCountOnly selects count mode from the intent or from count-ish
// query text, checked independently of the intent label.
func isCountOnly(query models.StructuredQuery) bool {
	if countOnlyIntents[query.Intent] {
		return true
	}
	lower := strings.ToLower(query.JQL)
	return strings.Contains(lower, "count") || strings.Contains(lower, "group by")
}

func (e *Executor) executeCount(ctx context.Context, jql string) models.FetchResult {
	log.Infof("Executing count-only query: %s", jql)
	page, err := e.search.Search(ctx, jql, 0, nil, 0)
	if err != nil {
		log.Errorf("Count query failed: %v", err)
		return errorResult(err)
	}
	return models.FetchResult{
		Records:        []models.Record{},
		ReportedTotal:  page.ReportedTotal,
		RetrievedCount: 0,
		CountOnly:      true,
	}
}

func (e *Executor) executeFull(ctx context.Context, jql string) models.FetchResult {
	log.Infof("Executing full-fetch query with pagination: %s", jql)

	var all []models.Record
	reportedTotal := 0
	startAt := 0
	firstPage := true
	seen := make(map[string]bool)

	for {
		page, err := e.search.Search(ctx, jql, pageSize, nil, startAt)
		if err != nil {
			log.Errorf("Page fetch failed at offset %d: %v", startAt, err)
			return errorResult(err)
		}

		if firstPage {
			reportedTotal = page.ReportedTotal
			firstPage = false
		}

		if len(page.Records) == 0 {
			break
		}
		// A page repeating already-seen keys means the offset is not
		// advancing server-side; stop before looping forever.
		if pageRepeatsKeys(page.Records, seen) {
			log.Warnf("Duplicate issue keys at offset %d, stopping pagination", startAt)
			break
		}
		for _, record := range page.Records {
			if record.Key != "" {
				seen[record.Key] = true
			}
		}
		all = append(all, page.Records...)

		// List-shaped responses carry no pagination info; their
		// single page is all we get.
		hasMore := page.Paginated && startAt+len(page.Records) < reportedTotal
		if !hasMore || len(page.Records) < pageSize {
			break
		}
		startAt += pageSize
	}

	// Drop malformed entries that carry neither a key nor a title.
	// This narrows RetrievedCount only; ReportedTotal stays the
	// server-declared count.
	filtered := make([]models.Record, 0, len(all))
	for _, record := range all {
		if record.Key == "" && record.Summary == "" {
			log.Warnf("Skipping record with missing key and summary")
			continue
		}
		filtered = append(filtered, record)
	}

	log.Infof("Retrieved %d of %d reported records", len(filtered), reportedTotal)
	return models.FetchResult{
		Records:        filtered,
		ReportedTotal:  reportedTotal,
		RetrievedCount: len(filtered),
	}
}

func pageRepeatsKeys(records []models.Record, seen map[string]bool) bool {
	for _, record := range records {
		if record.Key != "" && seen[record.Key] {
			return true
		}
	}
	return false
}

func errorResult(err error) models.FetchResult {
	return models.FetchResult{
		Records:        []models.Record{},
		ReportedTotal:  0,
		RetrievedCount: 0,
		Err:            err.Error(),
	}
}
