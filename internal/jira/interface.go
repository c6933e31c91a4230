package jira

import (
	"context"

	"github.com/careexpand/jira-insights/internal/models"
)

// Searcher defines the paginated search operations the executor needs
type Searcher interface {
	Search(ctx context.Context, jql string, maxResults int, fields []string, startAt int) (*models.SearchPage, error)
}

// ProjectLister enumerates the project keys visible to the configured
// credentials.
type ProjectLister interface {
	ProjectKeys(ctx context.Context) ([]string, error)
}
