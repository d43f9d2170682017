package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionProvider is a stateless OpenAI-compatible chat completion endpoint.
type CompletionProvider interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}

// ProviderError is returned by providers for non-success HTTP responses.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("completion provider returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Message)
}

// FailureClass groups provider failures by the fallback they receive.
type FailureClass string

const (
	FailureNone           FailureClass = ""
	FailureRateLimited    FailureClass = "rate_limited"
	FailureQuotaExhausted FailureClass = "quota_exhausted"
	FailureUnauthorized   FailureClass = "unauthorized"
	FailureUnavailable    FailureClass = "unavailable"
)

const insufficientQuotaCode = "insufficient_quota"

const (
	RateLimitedReply    = "AI agent is busy right now (rate limited). Please wait a few seconds and retry."
	QuotaExhaustedReply = "AI agent is temporarily unavailable because the server has no LLM quota configured. Please try again later."
	UnauthorizedReply   = "AI agent is unavailable because the server is misconfigured. Please contact support."
	UnavailableReply    = "Sorry, our support agent is having trouble right now. Please try again in a moment."
	EmptyReply          = "Sorry, could you rephrase that?"
)

// ClassifyProviderError maps a provider failure onto a FailureClass.
func ClassifyProviderError(err error) FailureClass {
	if err == nil {
		return FailureNone
	}

	status, code := 0, ""
	var providerErr *ProviderError
	var apiErr *openai.APIError
	var requestErr *openai.RequestError
	switch {
	case errors.As(err, &providerErr):
		status, code = providerErr.StatusCode, providerErr.Code
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
	case errors.As(err, &requestErr):
		status = requestErr.HTTPStatusCode
	default:
		return FailureUnavailable
	}

	switch {
	case status == http.StatusTooManyRequests && code == insufficientQuotaCode:
		return FailureQuotaExhausted
	case status == http.StatusTooManyRequests:
		return FailureRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureUnauthorized
	default:
		return FailureUnavailable
	}
}

// FallbackReply returns the canned reply for a failure class.
func FallbackReply(class FailureClass) string {
	switch class {
	case FailureRateLimited:
		return RateLimitedReply
	case FailureQuotaExhausted:
		return QuotaExhaustedReply
	case FailureUnauthorized:
		return UnauthorizedReply
	default:
		return UnavailableReply
	}
}
