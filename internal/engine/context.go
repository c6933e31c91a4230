package engine

import (
	"sync"

	"github.com/careexpand/jira-insights/internal/models"
)

// contextCapacity bounds the conversation history kept per session.
const contextCapacity = 10

// ConversationContext is a bounded FIFO of completed turns, used to
// give the query builder continuity for follow-up questions. One
// context per engine instance; appends are serialized so the sole
// writer can share the engine across goroutines safely.
type ConversationContext struct {
	mu    sync.Mutex
	turns []models.ConversationTurn
}

// NewConversationContext creates an empty context.
func NewConversationContext() *ConversationContext {
	return &ConversationContext{}
}

// Append pushes one completed turn, evicting the oldest when the
// capacity of 10 is exceeded.
func (c *ConversationContext) Append(turn models.ConversationTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	if len(c.turns) > contextCapacity {
		c.turns = c.turns[len(c.turns)-contextCapacity:]
	}
}

// Recent returns the last n turns in chronological order (oldest of
// the selected window first).
func (c *ConversationContext) Recent(n int) []models.ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > len(c.turns) {
		n = len(c.turns)
	}
	out := make([]models.ConversationTurn, n)
	copy(out, c.turns[len(c.turns)-n:])
	return out
}

// Len returns the number of turns currently held.
func (c *ConversationContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}
