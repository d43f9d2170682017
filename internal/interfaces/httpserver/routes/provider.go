package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/support-chat/internal/interfaces/httpserver/handlers"
)

// Provider coordinates all route registrations.
type Provider struct {
	handlers    *handlers.Provider
	messageGate gin.HandlerFunc
}

// NewProvider constructs the route provider. messageGate runs in front of
// POST /chat/message only and may be nil.
func NewProvider(handlerProvider *handlers.Provider, messageGate gin.HandlerFunc) *Provider {
	return &Provider{
		handlers:    handlerProvider,
		messageGate: messageGate,
	}
}

// Register attaches all routes to the gin engine.
func (p *Provider) Register(engine *gin.Engine) {
	registerHealthRoutes(engine, p.handlers.Health)
	registerChatRoutes(engine.Group("/chat"), p.handlers.Chat, p.messageGate)
}
