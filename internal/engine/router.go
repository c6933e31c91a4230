package engine

import (
	"strings"

	log "github.com/careexpand/jira-insights/internal/logging"
)

// RouteTarget names the backing store a query is routed to.
type RouteTarget string

const (
	TargetTracker   RouteTarget = "tracker"
	TargetDocuments RouteTarget = "documents"
)

// Decision is the router's outcome for one utterance.
type Decision struct {
	Target RouteTarget
	Reason string
}

// Keyword tables driving the routing rules. Order inside a table does
// not matter; the order of the rules below does.
var (
	// priorityKeywords always win: their presence routes to the
	// document store regardless of co-occurring tracker terms.
	priorityKeywords = []string{
		"confluence", "wiki", "document", "insurance", "eligibility",
		"entertainment", "partners", "lab", "results", "emr", "careexpand",
	}

	// checkPhrases are explicit "go look in the docs" requests.
	checkPhrases = []string{
		"check in confluence", "check confluence", "look in confluence", "search confluence",
		"check wiki", "look in wiki", "search wiki", "check documentation", "look in documentation",
		"search documentation", "check docs", "look in docs", "search docs",
	}

	documentKeywords = []string{
		"confluence", "documentation", "wiki", "page", "article",
		"knowledge base", "doc", "guide", "manual", "tutorial",
	}

	trackerTerms = []string{
		"issue", "bug", "task", "story", "epic", "sprint",
		"ticket", "jira", "assignee", "reporter", "status", "priority",
	}

	documentPatterns = []string{
		"view lab results", "lab results", "test results", "analysis results",
		"project overview", "documentation", "how to", "getting started",
		"user guide", "api documentation", "technical specs",
	}

	genericDocumentTerms = []string{
		"results", "report", "analysis", "findings", "study",
		"research", "data", "information", "content",
	}
)

// Router decides whether an utterance targets the document store or
// the tracker. The rules form a fixed priority list; the first match
// wins. If no document store is configured every utterance routes to
// the tracker.
type Router struct {
	documentsConfigured bool
	rules               []routeRule
}

type routeRule struct {
	name  string
	match func(q string) bool
}

// NewRouter creates a router. documentsConfigured reports whether a
// document-store collaborator is available.
func NewRouter(documentsConfigured bool) *Router {
	r := &Router{documentsConfigured: documentsConfigured}
	r.rules = []routeRule{
		{"priority_keyword", func(q string) bool {
			return containsAny(q, priorityKeywords)
		}},
		{"check_phrase", func(q string) bool {
			return containsAny(q, checkPhrases)
		}},
		{"document_keyword", func(q string) bool {
			return containsAny(q, documentKeywords) && !containsAny(q, trackerTerms)
		}},
		{"document_pattern", func(q string) bool {
			return containsAny(q, documentPatterns) && !containsAny(q, trackerTerms)
		}},
		// Generic nouns like "results" or "report" only route to the
		// document store when nothing suggests a structured query or
		// a ticket key: "=" and "-" exclude this rule.
		{"generic_document_term", func(q string) bool {
			return containsAny(q, genericDocumentTerms) &&
				!containsAny(q, trackerTerms) &&
				!strings.Contains(q, "=") &&
				!strings.Contains(q, "-")
		}},
	}
	return r
}

// Route applies the rule list to the lower-cased utterance.
func (r *Router) Route(utterance string) Decision {
	q := strings.ToLower(utterance)

	if !r.documentsConfigured {
		return Decision{Target: TargetTracker, Reason: "documents_unconfigured"}
	}

	for _, rule := range r.rules {
		if rule.match(q) {
			log.Infof("Routing to documents: rule %q matched for %q", rule.name, utterance)
			return Decision{Target: TargetDocuments, Reason: rule.name}
		}
	}
	return Decision{Target: TargetTracker, Reason: "default"}
}

func containsAny(q string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}
