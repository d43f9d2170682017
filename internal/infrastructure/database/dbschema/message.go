package dbschema

import (
	"fmt"
	"time"

	"github.com/janhq/support-chat/internal/domain/chat"
)

// Message mirrors the messages table. Ordering is created_at, then id.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID string    `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	Sender         string    `gorm:"type:text;not null"`
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
}

func (Message) TableName() string { return "messages" }

// EtoD converts the row to the domain type, rejecting senders outside the closed set.
func (m *Message) EtoD() (*chat.Message, error) {
	sender, err := chat.ParseSender(m.Sender)
	if err != nil {
		return nil, fmt.Errorf("message %d: %w", m.ID, err)
	}
	return &chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt,
	}, nil
}
