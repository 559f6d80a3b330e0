// internal/models/session.go
package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one chat message.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation starts with the system prompt, then alternates user and assistant turns.
type Conversation []Turn

// Append returns c extended with turns, leaving c untouched.
func (c Conversation) Append(turns ...Turn) Conversation {
	out := make(Conversation, 0, len(c)+len(turns))
	out = append(out, c...)
	return append(out, turns...)
}

// Session is the persisted state of one multi-turn exchange.
type Session struct {
	ID           string       `json:"id"`
	Conversation Conversation `json:"conversation"`
	LastAnswer   string       `json:"lastAnswer"`
}
