package chat

import "context"

// Repository is the durable store for conversations and messages.
type Repository interface {
	CreateConversation(ctx context.Context) (*Conversation, error)
	ConversationExists(ctx context.Context, id string) (bool, error)
	AppendMessage(ctx context.Context, conversationID string, sender Sender, text string) (*Message, error)
	// ListRecentMessages returns up to limit most recent messages, oldest first.
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
