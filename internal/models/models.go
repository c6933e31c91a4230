package models

// Intent labels assigned by the query builder.
const (
	IntentProjectOverview    = "project_overview"
	IntentAssigneeWork       = "assignee_work"
	IntentIssueDetails       = "issue_details"
	IntentReporterDetails    = "reporter_details"
	IntentPriorityDetails    = "priority_details"
	IntentStatusDetails      = "status_details"
	IntentDateDetails        = "date_details"
	IntentTypeDetails        = "type_details"
	IntentAssigneeComparison = "assignee_comparison"
	IntentProjectComparison  = "project_comparison"
	IntentListItems          = "list_items"
	IntentCountItems         = "count_items"
	IntentStatusBreakdown    = "status_breakdown"
	IntentGeneralQuery       = "general_query"
)

// Response types carried by a structured query.
const (
	ResponseCount      = "count"
	ResponseList       = "list"
	ResponseBreakdown  = "breakdown"
	ResponseComparison = "comparison"
)

// Answer provenance labels.
const (
	SourceTracker         = "tracker"
	SourceDocuments       = "documents"
	SourceTrackerFallback = "tracker_fallback"
	SourceNoResults       = "no_results"
	SourceFallbackError   = "fallback_error"
)

// StructuredQuery is one JQL query plus the metadata the builder
// attached to it. Immutable once built.
type StructuredQuery struct {
	JQL          string            `json:"jql"`
	Intent       string            `json:"intent"`
	ResponseType string            `json:"responseType"`
	Entities     map[string]string `json:"entities,omitempty"`
}

// QueryPlan is the builder's output: a single query, or an ordered set
// of queries for a comparison (one per compared entity).
type QueryPlan struct {
	Queries    []StructuredQuery `json:"queries"`
	Comparison bool              `json:"comparison"`
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Record is a normalized tracker issue or document hit. Gateways fill
// every field with a documented default when the remote payload lacks
// it, so downstream code never branches on missing data.
type Record struct {
	Key        string `json:"key"`
	Summary    string `json:"summary"`
	Status     string `json:"status"`
	IssueType  string `json:"issueType"`
	Priority   string `json:"priority"`
	Assignee   string `json:"assignee"`
	Reporter   string `json:"reporter"`
	Created    string `json:"created"` // ISO 8601 format string
	Updated    string `json:"updated"` // ISO 8601 format string
	Project    string `json:"project"`
	ProjectKey string `json:"projectKey"`

	// Document-store hits only.
	Space   string `json:"space,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// SearchPage is one page of remote search results. Paginated reports
// whether the server declared pagination info: list-shaped responses
// carry no total, so their ReportedTotal is just the page length and
// under-fetching cannot be detected in that mode.
type SearchPage struct {
	Records       []Record `json:"records"`
	ReportedTotal int      `json:"reportedTotal"`
	StartOffset   int      `json:"startOffset"`
	Paginated     bool     `json:"paginated"`
}

// FetchResult is the executor's output for one query.
// RetrievedCount always equals len(Records). ReportedTotal is the
// remote authoritative count and may exceed RetrievedCount; the
// divergence is preserved, never reconciled.
type FetchResult struct {
	Records        []Record `json:"records"`
	ReportedTotal  int      `json:"reportedTotal"`
	RetrievedCount int      `json:"retrievedCount"`
	CountOnly      bool     `json:"countOnly"`
	Err            string   `json:"error,omitempty"`
}

// EntityResult is one compared entity's fetch outcome. A failed entity
// carries Err and zero counts without aborting the rest of the batch.
type EntityResult struct {
	Entity         string   `json:"entity"`
	JQL            string   `json:"jql"`
	Records        []Record `json:"records"`
	ReportedTotal  int      `json:"reportedTotal"`
	RetrievedCount int      `json:"retrievedCount"`
	Err            string   `json:"error,omitempty"`
}

// ConversationTurn is one completed exchange kept for follow-up
// disambiguation.
type ConversationTurn struct {
	Utterance   string `json:"utterance"`
	Query       string `json:"query"`
	ResultCount int    `json:"resultCount"`
	Answer      string `json:"answer"`
}

// TranscriptMessage is a prior chat message supplied by the caller to
// seed conversation context.
type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the engine's final response for one utterance.
type Answer struct {
	JQL      string      `json:"jql"`
	Response string      `json:"response"`
	Intent   string      `json:"intent"`
	Source   string      `json:"source"`
	Data     interface{} `json:"data,omitempty"`
	Success  bool        `json:"success"`
}
