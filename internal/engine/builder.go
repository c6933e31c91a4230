package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/careexpand/jira-insights/internal/common"
	"github.com/careexpand/jira-insights/internal/llm"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

// ticketKeyPattern matches issue keys like CCM-283; matching is case
// insensitive and the key is normalized to upper case.
var ticketKeyPattern = regexp.MustCompile(`(?i)\b([A-Z]{2,}-\d+)\b`)

// Builder turns an utterance plus recent conversation into one
// structured query, or several for comparison questions. The primary
// path asks the LLM; any failure there drops transparently to the
// deterministic rule-based fallback, so callers always receive a plan.
type Builder struct {
	llm     llm.Client // nil disables the primary path
	aliases map[string]string

	// sorted alias nicknames, longest first, so "sai teja" wins
	// over "sai" style prefixes
	aliasOrder []string
}

// NewBuilder creates a query builder. aliases maps lowercase
// nicknames to canonical display names and may be nil.
func NewBuilder(client llm.Client, aliases map[string]string) *Builder {
	order := make([]string, 0, len(aliases))
	for nick := range aliases {
		order = append(order, nick)
	}
	sort.Slice(order, func(i, j int) bool {
		if len(order[i]) != len(order[j]) {
			return len(order[i]) > len(order[j])
		}
		return order[i] < order[j]
	})
	return &Builder{llm: client, aliases: aliases, aliasOrder: order}
}

// Build produces the query plan for an utterance. projectKeys is the
// set of known project keys; recent is the conversation window used
// for follow-up continuity.
func (b *Builder) Build(ctx context.Context, utterance string, projectKeys []string, recent []models.ConversationTurn) *models.QueryPlan {
	if b.llm != nil {
		plan, err := b.analyzeWithLLM(ctx, utterance, projectKeys, recent)
		if err == nil {
			return plan
		}
		log.Warnf("Query analysis failed, using deterministic fallback: %v", err)
	}
	return b.Fallback(utterance, projectKeys)
}

// analysisResponse is the JSON shape the LLM is instructed to return.
// jql is a string for single queries and an array for comparisons.
type analysisResponse struct {
	Intent       string            `json:"intent"`
	JQL          json.RawMessage   `json:"jql"`
	ResponseType string            `json:"response_type"`
	Entities     map[string]string `json:"entities"`
}

func (b *Builder) analyzeWithLLM(ctx context.Context, utterance string, projectKeys []string, recent []models.ConversationTurn) (*models.QueryPlan, error) {
	systemPrompt := buildAnalysisPrompt(projectKeys, recent)
	userPrompt := fmt.Sprintf("Query: %q\n\nGenerate appropriate JQL and analyze the intent.", utterance)

	raw, err := b.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	payload, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable analysis output: %w", err)
	}

	var resp analysisResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	if len(resp.JQL) == 0 {
		return nil, fmt.Errorf("analysis returned no jql")
	}

	// Comparison: jql is an ordered list, one query per entity.
	var jqlList []string
	if err := json.Unmarshal(resp.JQL, &jqlList); err == nil {
		if len(jqlList) < 2 {
			return nil, fmt.Errorf("comparison analysis returned %d queries", len(jqlList))
		}
		queries := make([]models.StructuredQuery, 0, len(jqlList))
		for i, jql := range jqlList {
			entity := resp.Entities[fmt.Sprintf("entity%d", i+1)]
			if entity == "" {
				entity = fmt.Sprintf("Entity %d", i+1)
			}
			queries = append(queries, models.StructuredQuery{
				JQL:          jql,
				Intent:       resp.Intent,
				ResponseType: models.ResponseComparison,
				Entities:     map[string]string{"entity": entity},
			})
		}
		return &models.QueryPlan{
			Queries:    queries,
			Comparison: true,
			Intent:     resp.Intent,
			Entities:   resp.Entities,
		}, nil
	}

	var jql string
	if err := json.Unmarshal(resp.JQL, &jql); err != nil || jql == "" {
		return nil, fmt.Errorf("analysis jql is neither string nor list")
	}
	responseType := resp.ResponseType
	if responseType == "" {
		responseType = models.ResponseList
	}
	return &models.QueryPlan{
		Queries: []models.StructuredQuery{{
			JQL:          jql,
			Intent:       resp.Intent,
			ResponseType: responseType,
			Entities:     resp.Entities,
		}},
		Intent:   resp.Intent,
		Entities: resp.Entities,
	}, nil
}

func buildAnalysisPrompt(projectKeys []string, recent []models.ConversationTurn) string {
	keys := strings.Join(projectKeys, ", ")

	var contextLines []string
	start := len(recent) - 3
	if start < 0 {
		start = 0
	}
	for _, turn := range recent[start:] {
		contextLines = append(contextLines, fmt.Sprintf("Previous: %q -> JQL: %s", turn.Utterance, turn.Query))
	}

	return fmt.Sprintf(`You are an expert Jira JQL generator and query analyst.

Available Jira Projects: %s

Your task is to:
1. Understand the user's natural language query
2. Generate appropriate JQL syntax
3. Identify the query intent and type

Recent conversation context:
%s

Rules for JQL generation:
- Use exact project keys: %s
- For assignee queries, use displayName in quotes: assignee = "John Doe"
- For project queries, use: project = "CCM"
- For status: status = "To Do" or status = "Done"
- For issue types: issuetype = "Story" or issuetype = "Bug"
- Always quote string values
- Use ORDER BY updated DESC for lists
- For counts, don't use ORDER BY

CRITICAL - For comparative queries:
- Detect comparison words: "vs", "versus", "compare", "who's busier", "which has more", "between"
- For comparisons, generate MULTIPLE separate JQL queries
- Return array of JQLs to fetch data for each entity separately
- IMPORTANT: For person comparisons (assignee comparisons), search ACROSS ALL PROJECTS unless specifically mentioned
- For project comparisons, search within each specific project

Intent types:
- "project_overview": General project information
- "assignee_work": What someone is working on
- "issue_details": Specific ticket information
- "reporter_details": Information about who reported an issue
- "priority_details": Information about issue priority
- "status_details": Information about issue status
- "date_details": Information about creation/update dates
- "type_details": Information about issue type
- "assignee_comparison": Comparing assignees/people
- "project_comparison": Comparing projects
- "list_items": List specific items
- "count_items": Count of items
- "status_breakdown": Status analysis

For SINGLE entity queries, respond with:
{
    "intent": "detected_intent_type",
    "jql": "single JQL query",
    "response_type": "count|list|breakdown",
    "entities": {
        "project": "extracted project",
        "assignee": "extracted assignee",
        "issue_type": "extracted issue type",
        "status": "extracted status"
    }
}

For COMPARISON queries, respond with:
{
    "intent": "assignee_comparison|project_comparison",
    "jql": ["query for entity 1", "query for entity 2"],
    "response_type": "comparison",
    "entities": {
        "entity1": "first entity name",
        "entity2": "second entity name",
        "comparison_type": "assignee|project"
    }
}

Examples:
- "Who's busier: Ashwin Thyagarajan or SARAVANAN NP?" -> Multiple JQLs: assignee = "Ashwin Thyagarajan" | assignee = "SARAVANAN NP"
- "Which project has more urgent work: CCM or CES?" -> Multiple JQLs: project = "CCM" | project = "CES"
- "Compare CCM vs TI projects" -> Multiple JQLs: project = "CCM" | project = "TI"
- "Who is the reporter of CCM-283?" -> Single JQL: issue = "CCM-283"
- "CCM-283 details" -> Single JQL: issue = "CCM-283"`,
		keys, strings.Join(contextLines, "\n"), keys)
}

// Fallback is the deterministic rule-based builder. It never fails: a
// ticket-key match wins outright, otherwise a conjunction of detected
// clauses is assembled, ordered by last update.
func (b *Builder) Fallback(utterance string, projectKeys []string) *models.QueryPlan {
	q := strings.ToLower(utterance)

	if match := ticketKeyPattern.FindStringSubmatch(utterance); match != nil {
		key := strings.ToUpper(match[1])
		return &models.QueryPlan{
			Queries: []models.StructuredQuery{{
				JQL:          fmt.Sprintf("issue = %q", key),
				Intent:       models.IntentIssueDetails,
				ResponseType: models.ResponseList,
				Entities:     map[string]string{"issue_key": key},
			}},
			Intent:   models.IntentIssueDetails,
			Entities: map[string]string{"issue_key": key},
		}
	}

	var clauses []string
	entities := map[string]string{}

	if project := detectProject(q, projectKeys); project != "" {
		clauses = append(clauses, fmt.Sprintf("project = %q", project))
		entities["project"] = project
	} else if len(projectKeys) > 0 {
		quoted := make([]string, len(projectKeys))
		for i, key := range projectKeys {
			quoted[i] = fmt.Sprintf("%q", key)
		}
		clauses = append(clauses, fmt.Sprintf("project in (%s)", strings.Join(quoted, ", ")))
	}

	if issueType := detectIssueType(q); issueType != "" {
		clauses = append(clauses, fmt.Sprintf("issuetype = %q", issueType))
		entities["issue_type"] = issueType
	}

	if assignee := b.resolveAssignee(q); assignee != "" {
		clauses = append(clauses, fmt.Sprintf(`assignee = "%s"`, escapeJQL(assignee)))
		entities["assignee"] = assignee
	}

	if clause := detectStatusClause(q); clause != "" {
		clauses = append(clauses, clause)
	}

	jql := strings.Join(clauses, " AND ")
	if jql == "" {
		jql = "ORDER BY updated DESC"
	} else {
		jql += " ORDER BY updated DESC"
	}

	return &models.QueryPlan{
		Queries: []models.StructuredQuery{{
			JQL:          jql,
			Intent:       models.IntentGeneralQuery,
			ResponseType: models.ResponseList,
			Entities:     entities,
		}},
		Intent:   models.IntentGeneralQuery,
		Entities: entities,
	}
}

func detectProject(q string, projectKeys []string) string {
	for _, key := range projectKeys {
		if key != "" && strings.Contains(q, strings.ToLower(key)) {
			return key
		}
	}
	return ""
}

func detectIssueType(q string) string {
	switch {
	case containsAny(q, []string{"story", "stories", "user story"}):
		return "Story"
	case containsAny(q, []string{"bug", "bugs", "defect", "defects"}):
		return "Bug"
	case containsAny(q, []string{"task", "tasks"}):
		return "Task"
	}
	return ""
}

func detectStatusClause(q string) string {
	if containsAny(q, []string{"open", "to do", "in progress"}) {
		return `status != "Done"`
	}
	if containsAny(q, []string{"done", "completed"}) {
		return `status = "Done"`
	}
	return ""
}

// resolveAssignee maps a nickname mentioned in the utterance to its
// canonical display name.
func (b *Builder) resolveAssignee(q string) string {
	for _, nick := range b.aliasOrder {
		if strings.Contains(q, nick) {
			return b.aliases[nick]
		}
	}
	return ""
}

// escapeJQL escapes double quotes in extracted names before they are
// interpolated into a quoted JQL value.
func escapeJQL(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}
