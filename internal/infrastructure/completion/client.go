package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/janhq/support-chat/internal/domain/chat"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultTimeout = 20 * time.Second

	DefaultBreakerThreshold = 5
	DefaultBreakerCooldown  = 30 * time.Second
)

// Config describes an OpenAI-compatible chat completion endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// BreakerThreshold consecutive transport or 5xx failures open the breaker
	// for BreakerCooldown. Calls made while it is open fail without a request.
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
}

// Client implements chat.CompletionProvider over resty.
type Client struct {
	httpClient *resty.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
}

var _ chat.CompletionProvider = (*Client)(nil)

// NewClient creates a Resty-backed client guarded by a circuit breaker.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := normalizeBaseURL(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		httpClient.SetAuthToken(key)
	}

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = DefaultBreakerThreshold
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	breakerLog := log.With().Str("component", "completion-breaker").Logger()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "completion",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerLog.Warn().Str("from", from.String()).Str("to", to.String()).Msg("completion circuit breaker state changed")
		},
	})

	return &Client{httpClient: httpClient, breaker: breaker, baseURL: baseURL}
}

// CreateChatCompletion calls {baseURL}/chat/completions. Non-2xx responses are
// returned as *chat.ProviderError.
func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("completion provider: %w", err)
		}
		return nil, err
	}
	return out.(*openai.ChatCompletionResponse), nil
}

// BreakerState reports the breaker state, mainly for diagnostics.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) post(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var completion openai.ChatCompletionResponse
	var errBody errorEnvelope

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		SetError(&errBody).
		Post("/chat/completions")
	if err != nil {
		// an error body that is not the OpenAI envelope fails resty's decoding
		if resp != nil && resp.IsError() {
			return nil, providerError(resp, nil)
		}
		return nil, fmt.Errorf("completion request: %w", err)
	}

	if resp.IsError() {
		return nil, providerError(resp, errBody.Error)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, &chat.ProviderError{StatusCode: resp.StatusCode(), Message: "unexpected status"}
	}
	return &completion, nil
}

// BaseURL returns the normalized endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorEnvelope is the OpenAI error body. code may be a string, a number or null.
type errorEnvelope struct {
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func providerError(resp *resty.Response, apiErr *errorDetail) *chat.ProviderError {
	out := &chat.ProviderError{StatusCode: resp.StatusCode()}
	if apiErr == nil {
		out.Message = strings.TrimSpace(resp.String())
		if out.Message == "" {
			out.Message = http.StatusText(resp.StatusCode())
		}
		return out
	}

	out.Message = apiErr.Message
	if code, ok := apiErr.Code.(string); ok && code != "" {
		out.Code = code
	} else {
		out.Code = apiErr.Type
	}
	return out
}

// Client errors (bad key, quota, 429) say nothing about provider health.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var providerErr *chat.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
