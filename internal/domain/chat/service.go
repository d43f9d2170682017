package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/janhq/support-chat/internal/infrastructure/metrics"
	"github.com/janhq/support-chat/internal/utils/platformerrors"
	"github.com/janhq/support-chat/pkg/telemetry"
)

const (
	DefaultModel              = "llama-3.3-70b-versatile"
	DefaultTemperature        = float32(0.2)
	DefaultMaxTokens          = 300
	DefaultPromptHistoryLimit = 20
	DefaultHistoryLimit       = 200
	DefaultCompletionTimeout  = 20 * time.Second
)

// ServiceConfig carries the tunables the service needs from config.
type ServiceConfig struct {
	SystemPrompt       string
	Model              string
	Temperature        float32
	MaxTokens          int
	CompletionTimeout  time.Duration
	HistoryCacheTTL    time.Duration
	PromptHistoryLimit int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = DefaultCompletionTimeout
	}
	if c.PromptHistoryLimit <= 0 {
		c.PromptHistoryLimit = DefaultPromptHistoryLimit
	}
	return c
}

// Reply is the outcome of a completion attempt. Failure is empty on success.
type Reply struct {
	Text    string
	Failure FailureClass
}

// ChatResult is returned to the HTTP boundary for one user message.
type ChatResult struct {
	ConversationID string
	Reply          string
	Failure        FailureClass
}

// Service owns the per-message flow: persist, invalidate, read history, call the provider.
type Service struct {
	repo      Repository
	cache     HistoryCache
	provider  CompletionProvider
	cfg       ServiceConfig
	sanitizer *telemetry.Sanitizer
	log       zerolog.Logger
}

// NewService wires the collaborators. cache may be a disabled implementation but not nil.
func NewService(repo Repository, cache HistoryCache, provider CompletionProvider, cfg ServiceConfig, sanitizer *telemetry.Sanitizer, log zerolog.Logger) *Service {
	if sanitizer == nil {
		sanitizer = telemetry.NewSanitizer(telemetry.PIILevelHashed, "")
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		provider:  provider,
		cfg:       cfg.withDefaults(),
		sanitizer: sanitizer,
		log:       log.With().Str("component", "chat-service").Logger(),
	}
}

// ResolveOrCreateConversation returns suppliedID when it names an existing
// conversation, otherwise creates a new one. The cache is not consulted.
func (s *Service) ResolveOrCreateConversation(ctx context.Context, suppliedID string) (string, error) {
	suppliedID = strings.TrimSpace(suppliedID)
	if IsConversationID(suppliedID) {
		exists, err := s.repo.ConversationExists(ctx, suppliedID)
		if err != nil {
			return "", err
		}
		if exists {
			return suppliedID, nil
		}
	}

	conv, err := s.repo.CreateConversation(ctx)
	if err != nil {
		return "", err
	}
	metrics.ConversationsCreatedTotal.Inc()
	s.log.Debug().Str("conversation_id", conv.ID).Bool("supplied", suppliedID != "").Msg("conversation created")
	return conv.ID, nil
}

// RecordMessage appends to the store and then invalidates the cached history.
// The write is reported complete only after the invalidate was attempted.
func (s *Service) RecordMessage(ctx context.Context, conversationID string, sender Sender, text string) (*Message, error) {
	if !sender.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid sender", nil, "5c0d3e1a-7f42-4b7e-9d6b-2f1a8c4e0b11")
	}
	normalized, ok := NormalizeText(text)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"message must be between 1 and 4000 characters", nil, "a3e9f6d2-1b57-4c08-8e3f-6d94b2c7a510")
	}

	msg, err := s.repo.AppendMessage(ctx, conversationID, sender, normalized)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessageStored(string(sender))

	s.cache.Invalidate(ctx, conversationID)
	return msg, nil
}

// GetHistory returns up to limit most recent entries, oldest first. With useCache
// the cache is read first and refilled on a miss; an unavailable cache is skipped.
func (s *Service) GetHistory(ctx context.Context, conversationID string, limit int, useCache bool) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if !IsConversationID(conversationID) {
		return []HistoryEntry{}, nil
	}

	if !useCache {
		return s.loadHistory(ctx, conversationID, limit)
	}

	lookup := s.cache.Get(ctx, conversationID)
	if lookup.Status == CacheHit {
		return tail(lookup.History, limit), nil
	}

	history, err := s.loadHistory(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if lookup.Status == CacheMiss {
		s.cache.Put(ctx, conversationID, history, s.cfg.HistoryCacheTTL)
	}
	return history, nil
}

func (s *Service) loadHistory(ctx context.Context, conversationID string, limit int) ([]HistoryEntry, error) {
	messages, err := s.repo.ListRecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, m.Entry())
	}
	return history, nil
}

// GenerateReply asks the provider for a reply. It always returns text: provider
// failures map to a fixed fallback message.
func (s *Service) GenerateReply(ctx context.Context, history []HistoryEntry, newMessage string) string {
	return s.generate(ctx, history, newMessage).Text
}

func (s *Service) generate(ctx context.Context, history []HistoryEntry, newMessage string) Reply {
	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    BuildPromptMessages(s.cfg.SystemPrompt, history, newMessage),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.provider.CreateChatCompletion(callCtx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		class := ClassifyProviderError(err)
		metrics.RecordProviderCall(string(class), elapsed)
		s.log.Warn().
			Err(err).
			Str("failure_class", string(class)).
			Int("history_len", len(history)).
			Msg("completion provider call failed, using fallback reply")
		return Reply{Text: FallbackReply(class), Failure: class}
	}

	content := ""
	if resp != nil && len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if content == "" {
		metrics.RecordProviderCall("empty", elapsed)
		return Reply{Text: EmptyReply}
	}

	// stored replies obey the same length bound as user messages
	if runes := []rune(content); len(runes) > MaxMessageLength {
		content = strings.TrimSpace(string(runes[:MaxMessageLength]))
	}

	metrics.RecordProviderCall("ok", elapsed)
	s.log.Debug().Str("reply", s.sanitizer.Text(content)).Msg("completion received")
	return Reply{Text: content}
}

// HandleUserMessage runs the full flow for one incoming user message.
func (s *Service) HandleUserMessage(ctx context.Context, suppliedID, text string) (*ChatResult, error) {
	conversationID, err := s.ResolveOrCreateConversation(ctx, suppliedID)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.RecordMessage(ctx, conversationID, SenderUser, text)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("conversation_id", conversationID).
		Str("message", s.sanitizer.Text(userMsg.Text)).
		Msg("user message stored")

	// one extra row so the just-stored message can be dropped without shrinking the window
	recent, err := s.repo.ListRecentMessages(ctx, conversationID, s.cfg.PromptHistoryLimit+1)
	if err != nil {
		return nil, err
	}
	history := promptHistory(recent, userMsg.ID, s.cfg.PromptHistoryLimit)

	reply := s.generate(ctx, history, userMsg.Text)

	if _, err := s.RecordMessage(ctx, conversationID, SenderAI, reply.Text); err != nil {
		return nil, err
	}

	return &ChatResult{
		ConversationID: conversationID,
		Reply:          reply.Text,
		Failure:        reply.Failure,
	}, nil
}

// IsConversationID reports whether id is a canonical UUID string.
func IsConversationID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func tail(history []HistoryEntry, limit int) []HistoryEntry {
	if limit > 0 && len(history) > limit {
		return history[len(history)-limit:]
	}
	return history
}
