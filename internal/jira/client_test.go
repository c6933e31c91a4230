package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careexpand/jira-insights/internal/config"
)

const sampleIssue = `{
	"key": "CCM-12",
	"fields": {
		"summary": "Fix login redirect",
		"status": {"name": "In Progress"},
		"issuetype": {"name": "Bug"},
		"priority": {"name": "High"},
		"assignee": {"displayName": "Ashwin Thyagarajan"},
		"reporter": {"displayName": "Srikanth Chitturi"},
		"created": "2026-03-01T09:30:00.000-0500",
		"updated": "2026-03-04T14:00:00.000-0500",
		"project": {"key": "CCM", "name": "CareExpand Core"}
	}
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := &config.Config{
		JiraBaseURL:  ts.URL,
		JiraEmail:    "bot@example.com",
		JiraAPIToken: "token",
	}
	return NewClient(cfg), ts
}

func TestSearchObjectShapedResponse(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search/jql" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("jql") != `project = "CCM"` {
			t.Errorf("Unexpected jql param: %s", r.URL.Query().Get("jql"))
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("Expected basic auth header")
		}
		w.Write([]byte(`{"total": 57, "issues": [` + sampleIssue + `]}`))
	})
	defer ts.Close()

	page, err := client.Search(context.Background(), `project = "CCM"`, 100, nil, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if !page.Paginated {
		t.Error("Expected object-shaped response to be paginated")
	}
	if page.ReportedTotal != 57 {
		t.Errorf("Expected total 57, got %d", page.ReportedTotal)
	}
	if len(page.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(page.Records))
	}

	record := page.Records[0]
	if record.Key != "CCM-12" {
		t.Errorf("Expected key CCM-12, got %s", record.Key)
	}
	if record.Assignee != "Ashwin Thyagarajan" {
		t.Errorf("Expected assignee display name, got %s", record.Assignee)
	}
	if record.Status != "In Progress" {
		t.Errorf("Expected status In Progress, got %s", record.Status)
	}
	if record.ProjectKey != "CCM" {
		t.Errorf("Expected project key CCM, got %s", record.ProjectKey)
	}
}

func TestSearchListShapedResponse(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[` + sampleIssue + `]`))
	})
	defer ts.Close()

	page, err := client.Search(context.Background(), `project = "CCM"`, 100, nil, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if page.Paginated {
		t.Error("Expected list-shaped response to be unpaginated")
	}
	// A list carries no total; the page length stands in for it.
	if page.ReportedTotal != 1 {
		t.Errorf("Expected total 1, got %d", page.ReportedTotal)
	}
}

func TestSearchCountOnly(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("maxResults") != "0" {
			t.Errorf("Expected maxResults 0, got %s", r.URL.Query().Get("maxResults"))
		}
		w.Write([]byte(`{"total": 42}`))
	})
	defer ts.Close()

	page, err := client.Search(context.Background(), `project = "CCM"`, 0, nil, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if page.ReportedTotal != 42 {
		t.Errorf("Expected total 42, got %d", page.ReportedTotal)
	}
	if len(page.Records) != 0 {
		t.Errorf("Expected no records, got %d", len(page.Records))
	}
}

func TestSearchAccessorDefaults(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 1, "issues": [{"key": "CCM-9", "fields": {"summary": "Bare issue"}}]}`))
	})
	defer ts.Close()

	page, err := client.Search(context.Background(), `project = "CCM"`, 100, nil, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	record := page.Records[0]
	if record.Assignee != "Unassigned" {
		t.Errorf("Expected missing assignee to default to Unassigned, got %s", record.Assignee)
	}
	if record.Reporter != "Unknown" {
		t.Errorf("Expected missing reporter to default to Unknown, got %s", record.Reporter)
	}
	if record.Status != "Unknown" || record.IssueType != "Unknown" || record.Priority != "Unknown" {
		t.Errorf("Expected Unknown defaults, got status=%s type=%s priority=%s",
			record.Status, record.IssueType, record.Priority)
	}
	if record.Project != "Unknown" {
		t.Errorf("Expected missing project name to default to Unknown, got %s", record.Project)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	client, ts := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad jql", http.StatusBadRequest)
	})
	defer ts.Close()

	_, err := client.Search(context.Background(), "nonsense", 100, nil, 0)
	if err == nil {
		t.Fatal("Expected an error for a 400 response")
	}
}
