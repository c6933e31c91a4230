package confluence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/careexpand/jira-insights/internal/config"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

// Searcher defines the document search operation the engine needs
type Searcher interface {
	Search(ctx context.Context, terms string, limit int) ([]models.Record, error)
}

// Client searches Confluence through the site search REST endpoint.
type Client struct {
	config     *config.Config
	httpClient *http.Client
}

// NewClient creates a new Confluence search client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: config.DefaultHTTPTimeout,
		},
	}
}

// Search runs a site search and returns normalized document hits.
// Each hit keeps the stable content id in Key so callers can
// de-duplicate across repeated searches.
func (c *Client) Search(ctx context.Context, terms string, limit int) ([]models.Record, error) {
	params := url.Values{}
	params.Set("cql", fmt.Sprintf("siteSearch ~ %s", strconv.Quote(terms)))
	params.Set("limit", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/wiki/rest/api/search?%s", c.config.ConfluenceBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(c.config.ConfluenceEmail + ":" + c.config.ConfluenceAPIToken))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("confluence search failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			Excerpt string `json:"excerpt"`
			Content struct {
				ID string `json:"id"`
			} `json:"content"`
			ResultGlobalContainer struct {
				Title string `json:"title"`
			} `json:"resultGlobalContainer"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	records := make([]models.Record, 0, len(payload.Results))
	for _, hit := range payload.Results {
		title := hit.Title
		if title == "" {
			title = "Untitled"
		}
		space := hit.ResultGlobalContainer.Title
		if space == "" {
			space = "Unknown Space"
		}
		records = append(records, models.Record{
			Key:     hit.Content.ID,
			Summary: title,
			Space:   space,
			Excerpt: hit.Excerpt,
		})
	}

	log.Debugf("Confluence search for %q returned %d hits", terms, len(records))
	return records, nil
}
