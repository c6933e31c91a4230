package jira

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	v3 "github.com/ctreminiom/go-atlassian/v2/jira/v3"
	atlassian "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"

	"github.com/careexpand/jira-insights/internal/config"
	log "github.com/careexpand/jira-insights/internal/logging"
)

// ProjectService lists project keys through the typed go-atlassian
// client. Keys change rarely, so the first successful listing is
// cached for the life of the service.
type ProjectService struct {
	client *v3.Client

	mu     sync.Mutex
	cached []string
}

// NewProjectService creates a project lister for the configured site
func NewProjectService(cfg *config.Config) (*ProjectService, error) {
	client, err := v3.New(&http.Client{Timeout: config.DefaultHTTPTimeout}, cfg.JiraBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create atlassian client: %w", err)
	}
	client.Auth.SetBasicAuth(cfg.JiraEmail, cfg.JiraAPIToken)
	return &ProjectService{client: client}, nil
}

// ProjectKeys returns the keys of all visible projects.
func (s *ProjectService) ProjectKeys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}

	keys := []string{}
	startAt := 0
	for {
		page, _, err := s.client.Project.Search(ctx, &atlassian.ProjectSearchOptionsScheme{}, startAt, 50)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		for _, project := range page.Values {
			if project.Key != "" {
				keys = append(keys, project.Key)
			}
		}
		if page.IsLast || len(page.Values) == 0 {
			break
		}
		startAt += len(page.Values)
	}

	log.Infof("Discovered %d Jira projects", len(keys))
	s.cached = keys
	return keys, nil
}
