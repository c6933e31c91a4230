package engine

import (
	"fmt"
	"strings"

	"github.com/careexpand/jira-insights/internal/common"
	"github.com/careexpand/jira-insights/internal/models"
)

// renderSummary formats a summary as deterministic text. It doubles as
// the data section of the generation prompt and as the user-facing
// answer when text generation is unavailable or fails.
func renderSummary(s *models.Summary) string {
	var sb strings.Builder

	if s.Complete {
		sb.WriteString(fmt.Sprintf("Found %d total items (complete dataset analyzed):\n", s.Total))
	} else {
		sb.WriteString(fmt.Sprintf("Showing segregations for %d issues (out of %d total).\n", s.Retrieved, s.Total))
	}

	writeBreakdown(&sb, "Issue Type Breakdown", s.ByType, "")
	writeBreakdown(&sb, "Assignee Breakdown", s.ByAssignee, " items")
	writeBreakdown(&sb, "Reporter Breakdown", s.ByReporter, " items")
	writeBreakdown(&sb, "Status Breakdown", s.ByStatus, "")
	writeBreakdown(&sb, "Priority Breakdown", s.ByPriority, "")
	writeMonthBreakdown(&sb, "Created Date Breakdown", s.ByCreatedMonth)
	writeMonthBreakdown(&sb, "Updated Date Breakdown", s.ByUpdatedMonth)

	if len(s.Samples) > 0 {
		sb.WriteString("\n**Sample Items:**\n")
		for _, item := range s.Samples {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", item.Key, item.Summary))
			sb.WriteString(fmt.Sprintf("  Status: %s | Priority: %s | Type: %s\n", item.Status, item.Priority, item.IssueType))
			sb.WriteString(fmt.Sprintf("  Assignee: %s | Reporter: %s\n", item.Assignee, item.Reporter))
			if item.Created != "" {
				sb.WriteString(fmt.Sprintf("  Created: %s | Updated: %s\n", truncateDate(item.Created), truncateDate(item.Updated)))
			}
		}
		if s.Retrieved > len(s.Samples) {
			sb.WriteString(fmt.Sprintf("... and %d more items.\n", s.Retrieved-len(s.Samples)))
		}
	}

	return sb.String()
}

func writeBreakdown(sb *strings.Builder, title string, b *models.Breakdown, suffix string) {
	if b.Len() == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n**%s:**\n", title))
	for _, entry := range b.Sorted() {
		sb.WriteString(fmt.Sprintf("- %s: %d%s\n", entry.Value, entry.Count, suffix))
	}
}

func writeMonthBreakdown(sb *strings.Builder, title string, b *models.Breakdown) {
	if b.Len() == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n**%s:**\n", title))
	for _, entry := range b.SortedByValueDesc() {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", entry.Value, entry.Count))
	}
}

// renderComparison formats a ranked comparison: per-entity counts, the
// winner and margin (or a tie), and each entity's share of the
// combined total. A zero combined total yields no percentage claims.
func renderComparison(c *models.Comparison) string {
	var sb strings.Builder
	sb.WriteString("**Comparison Analysis**\n\n")

	sb.WriteString("**Results Summary:**\n")
	for _, standing := range c.Standings {
		if standing.Err != "" {
			sb.WriteString(fmt.Sprintf("- **%s**: error - %s\n", standing.Entity, standing.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %d items\n", standing.Entity, standing.Count))
	}
	sb.WriteString("\n")

	if c.Tie && len(c.Standings) >= 2 {
		sb.WriteString(fmt.Sprintf("**Tied**: Both %s and %s have %d items\n\n",
			c.Standings[0].Entity, c.Standings[1].Entity, c.Standings[0].Count))
	} else if c.Winner != "" {
		sb.WriteString(fmt.Sprintf("**Winner**: %s with %d items\n", c.Winner, c.Standings[0].Count))
		sb.WriteString(fmt.Sprintf("**Difference**: %d more items than %s\n\n", c.Margin, c.RunnerUp))
	}

	if c.CombinedTotal > 0 {
		sb.WriteString("**Key Insights:**\n")
		for _, standing := range c.Standings {
			sb.WriteString(fmt.Sprintf("- %s handles %.1f%% of the workload\n", standing.Entity, standing.Share))
		}
	}

	return sb.String()
}

// renderDocuments formats document hits without text generation.
func renderDocuments(hits []models.Record) string {
	if len(hits) == 0 {
		return "No documentation found in Confluence. This search will now fall back to Jira issues."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Found %d Confluence pages:**\n\n", len(hits)))

	shown := len(hits)
	if shown > models.SampleSize {
		shown = models.SampleSize
	}
	for i, hit := range hits[:shown] {
		sb.WriteString(fmt.Sprintf("**%d. %s**\n", i+1, hit.Summary))
		sb.WriteString(fmt.Sprintf("   Space: %s\n", hit.Space))
		if hit.Excerpt != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", common.Truncate(hit.Excerpt, 150)))
		}
		sb.WriteString("\n")
	}
	if len(hits) > shown {
		sb.WriteString(fmt.Sprintf("... and %d more pages.\n", len(hits)-shown))
	}

	return sb.String()
}

func truncateDate(value string) string {
	if len(value) > 10 {
		return value[:10]
	}
	return value
}
