package service

import (
	"context"
	"strings"

	"taskbot/internal/llm"
	"taskbot/internal/model"
	"taskbot/pkg/logger"

	"go.uber.org/zap"
)

type IntentClassifier struct {
	llm    llm.Completer
	logger *zap.Logger
}

func NewIntentClassifier(completer llm.Completer, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{llm: completer, logger: logger}
}

// Classify asks the model for create_task or query_tasks. The reply is only
// lowercased and trimmed, so other labels pass through; callers treat them,
// and IntentNone on transport failure, as unrecognized.
func (c *IntentClassifier) Classify(ctx context.Context, message string) model.Intent {
	reply, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Purpose:      "intent",
		SystemPrompt: intentPrompt(message),
		MaxTokens:    intentMaxTokens,
		Temperature:  intentTemperature,
	})
	if err != nil {
		logger.WithTrace(ctx, c.logger).Error("Failed to determine intent", zap.Error(err))
		return model.IntentNone
	}
	return model.Intent(strings.ToLower(strings.TrimSpace(reply)))
}
