package infrastructure

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/domain/chat"
	"github.com/janhq/support-chat/internal/infrastructure/completion"
	"github.com/janhq/support-chat/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/support-chat/internal/infrastructure/historycache"
	"github.com/janhq/support-chat/pkg/telemetry"
)

// ProvideInfrastructure builds the infrastructure and returns its cleanup, so
// a provider failing later in the graph still releases connections.
func ProvideInfrastructure(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Infrastructure, func(), error) {
	infra, err := New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return infra, infra.cleanup(cfg.ShutdownTimeout), nil
}

func (i *Infrastructure) cleanup(timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := i.Shutdown(ctx); err != nil {
			i.Logger.Error().Err(err).Msg("shutdown infrastructure")
		}
	}
}

// ProvideCompletionClient builds the completion provider from config.
func ProvideCompletionClient(cfg *config.Config, log zerolog.Logger) *completion.Client {
	if cfg.CompletionAPIKey == "" {
		log.Warn().Msg("COMPLETION_API_KEY is not set; replies will use the unauthorized fallback")
	}
	return completion.NewClient(completion.Config{
		BaseURL: cfg.CompletionBaseURL,
		APIKey:  cfg.CompletionAPIKey,
		Timeout: cfg.CompletionTimeout,

		BreakerThreshold: cfg.CompletionBreakerThreshold,
		BreakerCooldown:  cfg.CompletionBreakerCooldown,
	}, log)
}

// ProvideSanitizer builds the log sanitizer for chat text.
func ProvideSanitizer(cfg *config.Config) *telemetry.Sanitizer {
	return telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.LogPIILevel), cfg.ServiceName)
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	ProvideInfrastructure,
	wire.FieldsOf(new(*Infrastructure), "DB", "HistoryCache"),

	// Repositories
	conversationrepo.NewConversationRepository,

	// Cache and provider behind their domain contracts
	wire.Bind(new(chat.HistoryCache), new(*historycache.Cache)),
	ProvideCompletionClient,
	wire.Bind(new(chat.CompletionProvider), new(*completion.Client)),

	ProvideSanitizer,
)
