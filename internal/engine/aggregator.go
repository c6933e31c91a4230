package engine

import (
	"sort"
	"time"

	"github.com/careexpand/jira-insights/internal/models"
)

// timestampLayouts are the formats Jira emits for created/updated.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z0700",
}

// Aggregator reduces fetched record sets into deterministic
// categorical breakdowns. All methods are pure: inputs are never
// mutated, so repeated calls over the same records yield identical
// results.
type Aggregator struct{}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Summarize reduces one record set. declaredTotal is the remote
// authoritative count; retrievedCount is what was actually analyzed.
// The summary is complete only when the two agree, and the distinction
// is always surfaced to consumers.
func (a *Aggregator) Summarize(records []models.Record, declaredTotal, retrievedCount int) *models.Summary {
	s := &models.Summary{
		Total:          declaredTotal,
		Retrieved:      retrievedCount,
		Complete:       declaredTotal == retrievedCount,
		ByAssignee:     models.NewBreakdown(),
		ByReporter:     models.NewBreakdown(),
		ByStatus:       models.NewBreakdown(),
		ByType:         models.NewBreakdown(),
		ByPriority:     models.NewBreakdown(),
		ByCreatedMonth: models.NewBreakdown(),
		ByUpdatedMonth: models.NewBreakdown(),
	}

	for _, record := range records {
		s.ByAssignee.Add(record.Assignee)
		s.ByReporter.Add(record.Reporter)
		s.ByStatus.Add(record.Status)
		s.ByType.Add(record.IssueType)
		s.ByPriority.Add(record.Priority)

		// Unparseable dates are skipped, never bucketed as "Unknown".
		if month, ok := monthBucket(record.Created); ok {
			s.ByCreatedMonth.Add(month)
		}
		if month, ok := monthBucket(record.Updated); ok {
			s.ByUpdatedMonth.Add(month)
		}
	}

	sampleLen := len(records)
	if sampleLen > models.SampleSize {
		sampleLen = models.SampleSize
	}
	s.Samples = append([]models.Record(nil), records[:sampleLen]...)

	return s
}

// Compare ranks entity results by fetched-item count descending,
// request order breaking ties. Entities whose query failed keep their
// error and rank with count zero; they never abort the batch.
func (a *Aggregator) Compare(results []models.EntityResult) *models.Comparison {
	c := &models.Comparison{}

	for _, result := range results {
		standing := models.EntityStanding{
			Entity: result.Entity,
			Count:  result.RetrievedCount,
			Err:    result.Err,
		}
		if result.Err == "" {
			standing.Summary = a.Summarize(result.Records, result.ReportedTotal, result.RetrievedCount)
		}
		c.Standings = append(c.Standings, standing)
		c.CombinedTotal += standing.Count
	}

	// Stable sort keeps request order on equal counts.
	sort.SliceStable(c.Standings, func(i, j int) bool {
		return c.Standings[i].Count > c.Standings[j].Count
	})

	if c.CombinedTotal > 0 {
		for i := range c.Standings {
			c.Standings[i].Share = float64(c.Standings[i].Count) / float64(c.CombinedTotal) * 100
			c.Standings[i].HasShare = true
		}
	}

	if len(c.Standings) >= 2 {
		first, second := c.Standings[0], c.Standings[1]
		if first.Count > second.Count {
			c.Winner = first.Entity
			c.RunnerUp = second.Entity
			c.Margin = first.Count - second.Count
		} else if first.Count == second.Count {
			c.Tie = true
		}
	}

	return c
}

// monthBucket derives a YYYY-MM bucket from a record timestamp.
func monthBucket(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}
