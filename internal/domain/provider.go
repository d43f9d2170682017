package domain

import (
	"fmt"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/pkg/telemetry"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	ProvideChatServiceConfig,
	ProvideChatService,
)

// ProvideChatServiceConfig resolves the system prompt and completion tunables.
func ProvideChatServiceConfig(cfg *config.Config) (chat.ServiceConfig, error) {
	prompt, err := config.LoadSystemPrompt(cfg.PromptFile)
	if err != nil {
		return chat.ServiceConfig{}, fmt.Errorf("load system prompt: %w", err)
	}
	return chat.ServiceConfig{
		SystemPrompt:       prompt,
		Model:              cfg.CompletionModel,
		CompletionTimeout:  cfg.CompletionTimeout,
		HistoryCacheTTL:    cfg.HistoryCacheTTL,
		PromptHistoryLimit: cfg.PromptHistoryLimit,
	}, nil
}

func ProvideChatService(
	repo chat.Repository,
	cache chat.HistoryCache,
	provider chat.CompletionProvider,
	serviceCfg chat.ServiceConfig,
	sanitizer *telemetry.Sanitizer,
	log zerolog.Logger,
) *chat.Service {
	return chat.NewService(repo, cache, provider, serviceCfg, sanitizer, log)
}
