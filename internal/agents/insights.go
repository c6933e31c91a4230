package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/careexpand/jira-insights/internal/common"
	"github.com/careexpand/jira-insights/internal/config"
	"github.com/careexpand/jira-insights/internal/engine"
	log "github.com/careexpand/jira-insights/internal/logging"
	"github.com/careexpand/jira-insights/internal/models"
)

// ChatTask is the payload a caller sends: the question to answer plus
// an optional prior transcript used to seed conversation context.
type ChatTask struct {
	Question string                     `json:"question"`
	Messages []models.TranscriptMessage `json:"messages,omitempty"`
}

// InsightsAgent implements the TaskProcessor interface from trpc-a2a-go.
// Each task carries one question; the answer is returned as a JSON
// TextPart on completion.
type InsightsAgent struct {
	config *config.Config
	engine *engine.Engine
}

// NewInsightsAgent creates a new InsightsAgent around an engine
func NewInsightsAgent(cfg *config.Config, eng *engine.Engine) *InsightsAgent {
	return &InsightsAgent{
		config: cfg,
		engine: eng,
	}
}

// Process implements the TaskProcessor interface from trpc-a2a-go
func (a *InsightsAgent) Process(ctx context.Context, taskID string, message protocol.Message, handle taskmanager.TaskHandle) error {
	log.Infof("Received task with ID: %s", taskID)

	if err := handle.UpdateStatus(protocol.TaskState("processing"), nil); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	task, err := extractChatTask(message)
	if err != nil {
		log.Warnf("Failed to extract chat task: %v", err)
		return fmt.Errorf("failed to extract chat task: %w", err)
	}

	if len(task.Messages) > 0 {
		a.engine.Seed(task.Messages)
	}

	log.Infof("Processing question: %s", common.Truncate(task.Question, 200))
	answer := a.engine.ProcessQuery(ctx, task.Question)

	resultJSON, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	responseMsg := &protocol.Message{
		Parts: []protocol.Part{protocol.NewTextPart(string(resultJSON))},
	}
	if err := handle.UpdateStatus(protocol.TaskState("completed"), responseMsg); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Infof("Task %s completed successfully", taskID)
	return nil
}

// extractChatTask pulls the question and optional transcript out of a
// message. Parts may carry a JSON ChatTask, a generic map with a
// question-like key, or a bare text question.
func extractChatTask(message protocol.Message) (*ChatTask, error) {
	if len(message.Parts) == 0 {
		return nil, fmt.Errorf("message has no parts")
	}

	for _, part := range message.Parts {
		// DataPart first (value or pointer)
		var dp *protocol.DataPart
		switch v := part.(type) {
		case protocol.DataPart:
			dp = &v
		case *protocol.DataPart:
			dp = v
		}
		if dp != nil && dp.Data != nil {
			raw, err := json.Marshal(dp.Data)
			if err != nil {
				continue
			}
			if task := parseChatJSON(raw); task != nil {
				return task, nil
			}
		}

		var text string
		switch v := part.(type) {
		case protocol.TextPart:
			text = v.Text
		case *protocol.TextPart:
			if v != nil {
				text = v.Text
			}
		}
		if text == "" {
			continue
		}
		if task := parseChatJSON([]byte(text)); task != nil {
			return task, nil
		}
		// Not JSON: the text itself is the question
		return &ChatTask{Question: text}, nil
	}

	return nil, fmt.Errorf("no question found in message")
}

func parseChatJSON(raw []byte) *ChatTask {
	var task ChatTask
	if err := json.Unmarshal(raw, &task); err == nil && task.Question != "" {
		return &task
	}

	var dataMap map[string]interface{}
	if err := json.Unmarshal(raw, &dataMap); err != nil {
		return nil
	}
	question, ok := common.GetStringValue(dataMap, "question", "query", "text", "message")
	if !ok {
		return nil
	}
	return &ChatTask{Question: question}
}

// StartServer runs the A2A server for this agent until ctx is canceled
func (a *InsightsAgent) StartServer(ctx context.Context) error {
	srv, err := common.SetupServer(common.SetupServerOptions{
		AgentName:    a.config.AgentName,
		AgentVersion: a.config.AgentVersion,
		AgentURL:     a.config.AgentURL,
		AuthType:     a.config.AuthType,
		JWTSecret:    a.config.JWTSecret,
		APIKey:       a.config.APIKey,
		Processor:    a,
		Skills: []server.AgentSkill{
			{
				ID:          "project-insights",
				Name:        "Project Insights",
				Description: common.StringPtr("Answers natural-language questions about Jira projects and Confluence documentation"),
				Tags:        []string{"jira", "confluence", "analytics"},
				Examples: []string{
					"How many open bugs are in CCM?",
					"Compare Ashwin and Srikanth workload",
					"Check confluence for the insurance eligibility guide",
				},
				InputModes:  []string{"text", "data"},
				OutputModes: []string{"text"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	return common.StartServer(ctx, srv, a.config.ServerHost, a.config.ServerPort)
}
