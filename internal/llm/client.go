// Package llm wraps the chat-completion API behind a small Completer
// interface used by the intent, task and filter extractors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"taskbot/config"
	"taskbot/pkg/circuitbreaker"
	"taskbot/pkg/metrics"
	"taskbot/pkg/otel"
	"taskbot/pkg/trace"
	"taskbot/pkg/util"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CompletionRequest is one single-turn completion.
type CompletionRequest struct {
	// Purpose labels the call site in metrics and logs (intent, filter, task).
	Purpose      string
	SystemPrompt string
	// UserMessage is sent as a separate user turn when non-empty.
	UserMessage string
	MaxTokens   int
	Temperature float32
}

// Completer returns the assistant text for a request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("llm: completion has no choices")

type OpenAIClient struct {
	client *openai.Client
	model  string
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	// 熔断器：连续失败3次后快速失败，30秒后半开探测
	cbConfig := circuitbreaker.Config{
		Name:                "openai",
		FailureThreshold:    3,
		SuccessThreshold:    1,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordCircuitTransition(name, to.String())
		},
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		cb:     circuitbreaker.NewCircuitBreaker(cbConfig),
		logger: logger,
	}
}

// Complete sends req and returns the first choice's content, trimmed.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := otel.StartClientSpan(ctx, "llm.complete",
		attribute.String("llm.purpose", req.Purpose),
		attribute.String("llm.model", c.model),
	)
	var content string
	var err error
	defer func() { otel.EndSpan(span, err) }()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
	}
	if req.UserMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.UserMessage,
		})
	}

	temperature := req.Temperature
	if temperature == 0 {
		// the field is omitempty; a literal 0 would fall back to the API default of 1
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	err = c.cb.Execute(func() error {
		resp, callErr := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: temperature,
		})
		if callErr != nil {
			return mapError(callErr)
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyCompletion
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	latency := time.Since(start)
	status := util.ClassifyError(err)
	metrics.RecordLLMCallLatency(req.Purpose, status, latency)

	if err != nil {
		c.logger.Error("LLM completion failed",
			zap.String("trace_id", trace.FromContext(ctx)),
			zap.String("purpose", req.Purpose),
			zap.String("status", status),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return "", fmt.Errorf("llm %s: %w", req.Purpose, err)
	}

	c.logger.Debug("LLM completion",
		zap.String("trace_id", trace.FromContext(ctx)),
		zap.String("purpose", req.Purpose),
		zap.Duration("latency", latency),
		zap.String("content", content),
	)
	return content, nil
}

// mapError converts SDK status errors into util.APIError so failures are
// classified the same way as the Notion adapter's.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &util.APIError{Service: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &util.APIError{Service: "openai", StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
