package handlers

import (
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat   *ChatHandler
	Health *HealthHandler
}

// NewProvider constructs the handler provider.
func NewProvider(cfg *config.Config, service *chat.Service, infra *infrastructure.Infrastructure, log zerolog.Logger) *Provider {
	return &Provider{
		Chat:   NewChatHandler(service, cfg.HistoryMaxMessages, log),
		Health: NewHealthHandler(infra, log),
	}
}
