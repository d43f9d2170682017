package chat

import (
	openai "github.com/sashabaranov/go-openai"
)

// BuildPromptMessages orders the prompt as system, history oldest first, then the new user message.
func BuildPromptMessages(systemPrompt string, history []HistoryEntry, newMessage string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, entry := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    entry.Sender.Role(),
			Content: entry.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: newMessage,
	})
	return messages
}

// promptHistory converts stored messages to history entries, leaving out the
// message with excludeID (the one being answered) wherever it sits, then keeps
// at most limit entries.
func promptHistory(messages []Message, excludeID uint64, limit int) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		if m.ID == excludeID {
			continue
		}
		history = append(history, m.Entry())
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}
