package chat

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Sender identifies who wrote a message. The set is closed: user or ai.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ParseSender validates a stored or decoded sender value.
func ParseSender(raw string) (Sender, error) {
	switch Sender(raw) {
	case SenderUser:
		return SenderUser, nil
	case SenderAI:
		return SenderAI, nil
	default:
		return "", fmt.Errorf("unknown sender %q", raw)
	}
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	_, err := ParseSender(string(s))
	return err == nil
}

// Role maps the sender onto the completion provider's role vocabulary.
func (s Sender) Role() string {
	switch s {
	case SenderAI:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
