// Package llm defines the port for chat completion backends.
package llm

import "context"

// Roles used in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer answers a conversation with the assistant's next message.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
