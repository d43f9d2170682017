package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/support-chat/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(group *gin.RouterGroup, h *handlers.ChatHandler, messageGate gin.HandlerFunc) {
	post := []gin.HandlerFunc{}
	if messageGate != nil {
		post = append(post, messageGate)
	}
	post = append(post, h.PostMessage)

	group.POST("/message", post...)
	group.GET("/history", h.GetHistory)
}

func registerHealthRoutes(engine *gin.Engine, h *handlers.HealthHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/healthz", h.Liveness)
	engine.GET("/readyz", h.Readiness)
}
