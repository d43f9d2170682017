package dbschema

import (
	"time"

	"github.com/janhq/support-chat/internal/domain/chat"
)

// Conversation mirrors the conversations table.
type Conversation struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Conversation) TableName() string { return "conversations" }

// EtoD converts the row to the domain type.
func (c *Conversation) EtoD() *chat.Conversation {
	if c == nil {
		return nil
	}
	return &chat.Conversation{ID: c.ID, CreatedAt: c.CreatedAt}
}
