package chat

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Turns are never edited.
type Turn struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	SourceLabel string    `json:"source_label,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewUserTurn(content string) Turn {
	return Turn{ID: uuid.NewString(), Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

func NewAssistantTurn(content, label, url string) Turn {
	return Turn{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     content,
		SourceLabel: label,
		SourceURL:   url,
		CreatedAt:   time.Now(),
	}
}

// Conversation is an append-only turn log. It is not safe for concurrent
// use; the owning Session serialises access.
type Conversation struct {
	turns []Turn
}

func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// All returns a copy in insertion order.
func (c *Conversation) All() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Reset empties the log. Resetting an empty conversation is a no-op.
func (c *Conversation) Reset() {
	c.turns = nil
}

func (c *Conversation) Len() int {
	return len(c.turns)
}
