package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/interfaces/httpserver/requests"
	"github.com/janhq/support-chat/internal/interfaces/httpserver/responses"
	"github.com/janhq/support-chat/internal/utils/platformerrors"
)

// ChatService is the subset of chat.Service used by the HTTP layer.
type ChatService interface {
	HandleUserMessage(ctx context.Context, suppliedID, text string) (*chat.ChatResult, error)
	GetHistory(ctx context.Context, conversationID string, limit int, useCache bool) ([]chat.HistoryEntry, error)
}

// ChatHandler exposes the chat widget endpoints.
type ChatHandler struct {
	service      ChatService
	historyLimit int
	log          zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service ChatService, historyLimit int, log zerolog.Logger) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = chat.DefaultHistoryLimit
	}
	return &ChatHandler{
		service:      service,
		historyLimit: historyLimit,
		log:          log.With().Str("handler", "chat").Logger(),
	}
}

// PostMessage handles POST /chat/message
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, platformerrors.HTTPErrorResponse{
				Error: &platformerrors.HTTPErrorDetail{
					Message: "Request body too large",
					Type:    "validation_error",
				},
			})
			return
		}
		platformerrors.WriteValidationError(c, "Invalid request body", nil)
		return
	}

	req.Normalize()
	if fields := req.Validate(); fields != nil {
		platformerrors.WriteValidationError(c, "Invalid request", fields)
		return
	}

	result, err := h.service.HandleUserMessage(c.Request.Context(), req.SuppliedSessionID(), req.Message)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.SendMessageResponse{
		Reply:     result.Reply,
		SessionID: result.ConversationID,
	})
}

// GetHistory handles GET /chat/history?sessionId=
func (h *ChatHandler) GetHistory(c *gin.Context) {
	var query requests.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, "Invalid query", nil)
		return
	}

	query.Normalize()
	if fields := query.Validate(); fields != nil {
		platformerrors.WriteValidationError(c, "sessionId is required", fields)
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), query.SessionID, h.historyLimit, true)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewHistoryResponse(query.SessionID, history))
}
