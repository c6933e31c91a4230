package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/careexpand/jira-insights/internal/config"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

// DefaultFields is the field selection used when the caller does not
// supply one.
var DefaultFields = []string{
	"key", "summary", "status", "issuetype", "assignee", "project",
	"created", "updated", "priority", "description", "reporter",
}

// Client searches Jira through the REST API v3 search/jql endpoint.
// The raw response is normalized here so no downstream component
// branches on remote response shape.
type Client struct {
	config     *config.Config
	httpClient *http.Client
}

// NewClient creates a new Jira search client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: config.DefaultHTTPTimeout,
		},
	}
}

// Search requests a single page of results for the given JQL.
// maxResults = 0 asks for a count-only page: no records, but the
// server still declares the matching total.
func (c *Client) Search(ctx context.Context, jql string, maxResults int, fields []string, startAt int) (*models.SearchPage, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("fields", strings.Join(fields, ","))

	reqURL := fmt.Sprintf("%s/rest/api/3/search/jql?%s", c.config.JiraBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.addAuthHeader(req)

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
		return nil, fmt.Errorf("search failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	page, err := normalizePage(body, startAt)
	if err != nil {
		return nil, err
	}
	log.Debugf("Jira search page: startAt=%d retrieved=%d total=%d paginated=%v",
		startAt, len(page.Records), page.ReportedTotal, page.Paginated)
	return page, nil
}

// normalizePage converts either remote response shape into a
// SearchPage. Object-shaped responses carry an authoritative total;
// list-shaped responses do not, so their total is just the page length
// and Paginated is false.
func normalizePage(body []byte, startAt int) (*models.SearchPage, error) {
	var asObject struct {
		Issues []json.RawMessage `json:"issues"`
		Total  int               `json:"total"`
	}
	if err := json.Unmarshal(body, &asObject); err == nil && asObject.Issues != nil {
		records := make([]models.Record, 0, len(asObject.Issues))
		for _, raw := range asObject.Issues {
			records = append(records, recordFromIssue(raw))
		}
		return &models.SearchPage{
			Records:       records,
			ReportedTotal: asObject.Total,
			StartOffset:   startAt,
			Paginated:     true,
		}, nil
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(body, &asList); err == nil {
		records := make([]models.Record, 0, len(asList))
		for _, raw := range asList {
			records = append(records, recordFromIssue(raw))
		}
		return &models.SearchPage{
			Records:       records,
			ReportedTotal: len(records),
			StartOffset:   startAt,
			Paginated:     false,
		}, nil
	}

	// An object without an issues array still counts: count-only
	// responses against an empty result set may omit the array.
	var totalOnly struct {
		Total *int `json:"total"`
	}
	if err := json.Unmarshal(body, &totalOnly); err == nil && totalOnly.Total != nil {
		return &models.SearchPage{
			Records:       []models.Record{},
			ReportedTotal: *totalOnly.Total,
			StartOffset:   startAt,
			Paginated:     true,
		}, nil
	}

	return nil, fmt.Errorf("unexpected search response shape: %s", string(body[:min(len(body), 200)]))
}

// recordFromIssue maps one raw issue into a Record. Every accessor
// returns a documented default for absent or malformed nested
// structures: assignee "Unassigned", reporter/status/type/priority
// "Unknown".
func recordFromIssue(raw json.RawMessage) models.Record {
	var issue map[string]interface{}
	if err := json.Unmarshal(raw, &issue); err != nil {
		return models.Record{}
	}

	fields, _ := issue["fields"].(map[string]interface{})

	return models.Record{
		Key:        stringAt(issue, "key"),
		Summary:    stringAt(fields, "summary"),
		Status:     nestedName(fields, "status", "Unknown"),
		IssueType:  nestedName(fields, "issuetype", "Unknown"),
		Priority:   nestedName(fields, "priority", "Unknown"),
		Assignee:   nestedDisplayName(fields, "assignee", "Unassigned"),
		Reporter:   nestedDisplayName(fields, "reporter", "Unknown"),
		Created:    stringAt(fields, "created"),
		Updated:    stringAt(fields, "updated"),
		Project:    nestedString(fields, "project", "name", "Unknown"),
		ProjectKey: nestedString(fields, "project", "key", ""),
	}
}

// addAuthHeader adds basic authentication to the request
func (c *Client) addAuthHeader(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.config.JiraEmail + ":" + c.config.JiraAPIToken))
	req.Header.Set("Authorization", "Basic "+auth)
}

func stringAt(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func nestedString(m map[string]interface{}, key, sub, def string) string {
	if m == nil {
		return def
	}
	if inner, ok := m[key].(map[string]interface{}); ok {
		if s, ok := inner[sub].(string); ok && s != "" {
			return s
		}
	}
	return def
}

func nestedName(m map[string]interface{}, key, def string) string {
	return nestedString(m, key, "name", def)
}

func nestedDisplayName(m map[string]interface{}, key, def string) string {
	return nestedString(m, key, "displayName", def)
}
