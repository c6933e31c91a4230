package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/careexpand/jira-insights/internal/config"
	"github.com/careexpand/jira-insights/internal/confluence"
	"github.com/careexpand/jira-insights/internal/jira"
	"github.com/careexpand/jira-insights/internal/llm"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

const (
	fullSearchLimit    = 10
	keywordSearchLimit = 5
)

// Engine answers natural-language questions about the tracker and the
// document store. It owns routing, query building, execution,
// aggregation and answer generation for one conversation.
type Engine struct {
	cfg        *config.Config
	router     *Router
	builder    *Builder
	executor   *Executor
	aggregator *Aggregator
	docs       confluence.Searcher
	llm        llm.Client
	projects   jira.ProjectLister
	context    *ConversationContext
}

// New wires an engine. docs may be nil when no document store is
// configured; llmClient may be nil to disable generation and LLM query
// analysis; projects may be nil when project enumeration is
// unavailable.
func New(cfg *config.Config, search jira.Searcher, projects jira.ProjectLister, docs confluence.Searcher, llmClient llm.Client) *Engine {
	return &Engine{
		cfg:        cfg,
		router:     NewRouter(docs != nil),
		builder:    NewBuilder(llmClient, cfg.AssigneeAliases),
		executor:   NewExecutor(search),
		aggregator: NewAggregator(),
		docs:       docs,
		llm:        llmClient,
		projects:   projects,
		context:    NewConversationContext(),
	}
}

// Seed replays a prior transcript into the conversation context.
// Messages are paired user then assistant; unpaired or empty messages
// are skipped.
func (e *Engine) Seed(transcript []models.TranscriptMessage) {
	var pendingUser string
	for _, msg := range transcript {
		switch strings.ToLower(msg.Role) {
		case "user":
			pendingUser = msg.Content
		case "assistant":
			if pendingUser == "" || msg.Content == "" {
				continue
			}
			e.context.Append(models.ConversationTurn{
				Utterance: pendingUser,
				Answer:    msg.Content,
			})
			pendingUser = ""
		}
	}
}

// ProcessQuery answers one utterance. It never returns an error: every
// failure mode degrades to an Answer describing what happened.
func (e *Engine) ProcessQuery(ctx context.Context, utterance string) *models.Answer {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return &models.Answer{
			Response: "Please ask a question about your projects or documentation.",
			Intent:   models.IntentGeneralQuery,
			Source:   models.SourceTracker,
			Success:  false,
		}
	}

	decision := e.router.Route(utterance)
	log.Infof("Routed %q to %s (%s)", utterance, decision.Target, decision.Reason)

	var answer *models.Answer
	if decision.Target == TargetDocuments {
		answer = e.processDocuments(ctx, utterance)
	} else {
		answer = e.processTracker(ctx, utterance)
	}

	if answer.Success {
		resultCount := 0
		switch data := answer.Data.(type) {
		case *models.Summary:
			resultCount = data.Retrieved
		case *models.Comparison:
			for _, standing := range data.Standings {
				resultCount += standing.Count
			}
		}
		e.context.Append(models.ConversationTurn{
			Utterance:   utterance,
			Query:       answer.JQL,
			ResultCount: resultCount,
			Answer:      answer.Response,
		})
	}
	return answer
}

func (e *Engine) processTracker(ctx context.Context, utterance string) *models.Answer {
	keys := e.projectKeys(ctx)
	plan := e.builder.Build(ctx, utterance, keys, e.context.Recent(3))

	if plan.Comparison {
		return e.processComparison(ctx, utterance, plan)
	}

	query := plan.Queries[0]
	result := e.executor.Execute(ctx, query)
	if result.Err != "" {
		return &models.Answer{
			JQL:      query.JQL,
			Response: fmt.Sprintf("I couldn't retrieve the data for that question: %s", result.Err),
			Intent:   query.Intent,
			Source:   models.SourceTracker,
			Success:  false,
		}
	}

	summary := e.aggregator.Summarize(result.Records, result.ReportedTotal, result.RetrievedCount)
	rendered := renderSummary(summary)
	if result.CountOnly {
		rendered = fmt.Sprintf("Found %d matching items.", result.ReportedTotal)
	}

	return &models.Answer{
		JQL:      query.JQL,
		Response: e.generate(ctx, utterance, rendered),
		Intent:   query.Intent,
		Source:   models.SourceTracker,
		Data:     summary,
		Success:  true,
	}
}

// processComparison runs one fetch per compared entity concurrently.
// Each goroutine writes only its own slot, so the ordering of entities
// in the plan is preserved in the results.
func (e *Engine) processComparison(ctx context.Context, utterance string, plan *models.QueryPlan) *models.Answer {
	results := make([]models.EntityResult, len(plan.Queries))
	var wg sync.WaitGroup
	for i, query := range plan.Queries {
		wg.Add(1)
		go func(i int, query models.StructuredQuery) {
			defer wg.Done()
			fetched := e.executor.Execute(ctx, query)
			results[i] = models.EntityResult{
				Entity:         query.Entities["entity"],
				JQL:            query.JQL,
				Records:        fetched.Records,
				ReportedTotal:  fetched.ReportedTotal,
				RetrievedCount: fetched.RetrievedCount,
				Err:            fetched.Err,
			}
		}(i, query)
	}
	wg.Wait()

	comparison := e.aggregator.Compare(results)
	rendered := renderComparison(comparison)

	jqls := make([]string, 0, len(plan.Queries))
	for _, query := range plan.Queries {
		jqls = append(jqls, query.JQL)
	}

	return &models.Answer{
		JQL:      strings.Join(jqls, " | "),
		Response: e.generate(ctx, utterance, rendered),
		Intent:   plan.Intent,
		Source:   models.SourceTracker,
		Data:     comparison,
		Success:  true,
	}
}

func (e *Engine) processDocuments(ctx context.Context, utterance string) *models.Answer {
	hits := e.searchDocuments(ctx, utterance)
	if len(hits) > 0 {
		rendered := renderDocuments(hits)
		return &models.Answer{
			Response: e.generate(ctx, utterance, rendered),
			Intent:   models.IntentGeneralQuery,
			Source:   models.SourceDocuments,
			Data:     hits,
			Success:  true,
		}
	}

	// Nothing in the document store; retry the question against the
	// tracker so the user still gets an answer. The full builder runs
	// here so the fallback query keeps LLM analysis when available.
	log.Infof("No document hits for %q, falling back to tracker", utterance)
	keys := e.projectKeys(ctx)
	plan := e.builder.Build(ctx, utterance, keys, e.context.Recent(3))
	query := plan.Queries[0]

	result := e.executor.Execute(ctx, query)
	if result.Err != "" {
		return &models.Answer{
			JQL:      query.JQL,
			Response: "I couldn't find matching documentation, and the tracker search also failed. Please try rephrasing your question.",
			Intent:   query.Intent,
			Source:   models.SourceFallbackError,
			Success:  false,
		}
	}
	if result.RetrievedCount == 0 {
		return &models.Answer{
			JQL:      query.JQL,
			Response: "I couldn't find matching documentation or related tracker items for that question.",
			Intent:   query.Intent,
			Source:   models.SourceNoResults,
			Success:  false,
		}
	}

	summary := e.aggregator.Summarize(result.Records, result.ReportedTotal, result.RetrievedCount)
	rendered := "No documentation found, but here are related tracker items:\n\n" + renderSummary(summary)

	return &models.Answer{
		JQL:      query.JQL,
		Response: e.generate(ctx, utterance, rendered),
		Intent:   query.Intent,
		Source:   models.SourceTrackerFallback,
		Data:     summary,
		Success:  true,
	}
}

// searchDocuments applies the search strategies in order and returns
// the first non-empty hit set. Strategy 1 searches all extracted terms
// together; strategy 2 searches the top keywords individually and
// de-duplicates by content id; strategy 3 broadens to the configured
// fallback term.
func (e *Engine) searchDocuments(ctx context.Context, utterance string) []models.Record {
	terms := extractSearchTerms(utterance)

	hits, err := e.docs.Search(ctx, strings.Join(terms, " "), fullSearchLimit)
	if err != nil {
		log.Warnf("Document search failed: %v", err)
	}
	if len(hits) > 0 {
		return hits
	}

	if len(terms) > 1 {
		seen := make(map[string]bool)
		var merged []models.Record
		for _, term := range terms[:2] {
			partial, err := e.docs.Search(ctx, term, keywordSearchLimit)
			if err != nil {
				log.Warnf("Document keyword search for %q failed: %v", term, err)
				continue
			}
			for _, hit := range partial {
				if seen[hit.Key] {
					continue
				}
				seen[hit.Key] = true
				merged = append(merged, hit)
			}
		}
		if len(merged) > 0 {
			return merged
		}
	}

	if e.cfg.ConfluenceFallbackTerm != "" {
		hits, err := e.docs.Search(ctx, e.cfg.ConfluenceFallbackTerm, fullSearchLimit)
		if err != nil {
			log.Warnf("Document fallback search failed: %v", err)
		}
		return hits
	}
	return nil
}

func (e *Engine) projectKeys(ctx context.Context) []string {
	if e.projects == nil {
		return nil
	}
	keys, err := e.projects.ProjectKeys(ctx)
	if err != nil {
		log.Warnf("Failed to list project keys: %v", err)
		return nil
	}
	return keys
}

// generate turns the rendered data into a conversational answer. Any
// generation failure falls back to the rendered text, which is always
// a valid answer on its own.
func (e *Engine) generate(ctx context.Context, utterance, rendered string) string {
	if e.llm == nil {
		return rendered
	}

	systemPrompt := `You are a senior consultant presenting project analytics to leadership.
Answer the user's question using ONLY the data provided. Be concise and
direct: lead with the number or conclusion the user asked for, then give
supporting detail. Preserve all counts and percentages exactly as given.
Do not invent data that is not present.`

	userPrompt := fmt.Sprintf("Question: %s\n\nData:\n%s", utterance, rendered)

	answer, err := e.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Warnf("Answer generation failed, using rendered data: %v", err)
		return rendered
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return rendered
	}
	return answer
}
