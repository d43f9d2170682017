package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the upper bound on a trimmed message body, in characters.
const MaxMessageLength = 4000

// Conversation is identified by an opaque UUID string and never mutated after creation.
type Conversation struct {
	ID        string
	CreatedAt time.Time
}

// Message is an append-only entry in a conversation.
type Message struct {
	ID             uint64
	ConversationID string
	Sender         Sender
	Text           string
	CreatedAt      time.Time
}

// HistoryEntry is the public and cached view of a message.
type HistoryEntry struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Entry returns the history view of the message.
func (m Message) Entry() HistoryEntry {
	return HistoryEntry{Sender: m.Sender, Text: m.Text}
}

// NormalizeText trims the body and reports whether it fits the allowed length.
func NormalizeText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	return trimmed, n >= 1 && n <= MaxMessageLength
}
