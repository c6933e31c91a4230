package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/careexpand/jira-insights/internal/agents"
	"github.com/careexpand/jira-insights/internal/config"
	"github.com/careexpand/jira-insights/internal/confluence"
	"github.com/careexpand/jira-insights/internal/engine"
	"github.com/careexpand/jira-insights/internal/jira"
	"github.com/careexpand/jira-insights/internal/llm"
	log "github.com/careexpand/jira-insights/internal/logging"
)

func main() {
	defer log.Sync()

	cfg := config.NewConfig()
	cfg.AgentURL = fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort)

	if cfg.JiraBaseURL == "" {
		log.Fatalf("jira_base_url is required")
	}

	searcher := jira.NewClient(cfg)

	var projects jira.ProjectLister
	if svc, err := jira.NewProjectService(cfg); err != nil {
		log.Warnf("Project listing unavailable: %v", err)
	} else {
		projects = svc
	}

	var docs confluence.Searcher
	if cfg.ConfluenceConfigured() {
		docs = confluence.NewClient(cfg)
		log.Infof("Confluence search enabled for %s", cfg.ConfluenceBaseURL)
	} else {
		log.Infof("Confluence not configured, document queries route to Jira")
	}

	var llmClient llm.Client
	if cfg.LLMEnabled && cfg.LLMAPIKey != "" {
		client, err := llm.NewClient(cfg)
		if err != nil {
			log.Warnf("LLM unavailable, using deterministic query building: %v", err)
		} else {
			llmClient = client
			log.Infof("LLM enabled: provider=%s model=%s", cfg.LLMProvider, cfg.LLMModel)
		}
	} else {
		log.Infof("LLM disabled, using deterministic query building")
	}

	eng := engine.New(cfg, searcher, projects, docs, llmClient)
	agent := agents.NewInsightsAgent(cfg, eng)

	log.Infof("%s listening on %s:%d", cfg.AgentName, cfg.ServerHost, cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agent.StartServer(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Infof("Server shutdown complete")
}
