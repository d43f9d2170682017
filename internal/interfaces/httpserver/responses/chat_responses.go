package responses

import "github.com/janhq/support-chat/internal/domain/chat"

// SendMessageResponse is returned by POST /chat/message.
type SendMessageResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

// HistoryMessage is one entry of a history response.
type HistoryMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// HistoryResponse is returned by GET /chat/history.
type HistoryResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []HistoryMessage `json:"messages"`
}

// NewHistoryResponse maps domain entries, keeping messages a JSON array when empty.
func NewHistoryResponse(sessionID string, history []chat.HistoryEntry) HistoryResponse {
	messages := make([]HistoryMessage, 0, len(history))
	for _, entry := range history {
		messages = append(messages, HistoryMessage{Sender: string(entry.Sender), Text: entry.Text})
	}
	return HistoryResponse{SessionID: sessionID, Messages: messages}
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ReadinessResponse is returned by GET /readyz.
type ReadinessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
