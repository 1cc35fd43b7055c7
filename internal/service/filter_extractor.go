package service

import (
	"context"

	"taskbot/internal/llm"
	"taskbot/internal/model"
	"taskbot/pkg/logger"
	"taskbot/pkg/metrics"

	"go.uber.org/zap"
)

type FilterExtractor struct {
	llm    llm.Completer
	logger *zap.Logger
}

func NewFilterExtractor(completer llm.Completer, logger *zap.Logger) *FilterExtractor {
	return &FilterExtractor{llm: completer, logger: logger}
}

// Extract derives query criteria from free text. It fails open: a transport
// error or malformed reply yields an empty filter, which matches every task.
func (e *FilterExtractor) Extract(ctx context.Context, query string) model.FilterCriteria {
	log := logger.WithTrace(ctx, e.logger)

	reply, err := e.llm.Complete(ctx, llm.CompletionRequest{
		Purpose:      "filter",
		SystemPrompt: filterPrompt(query),
		MaxTokens:    filterMaxTokens,
		Temperature:  filterTemperature,
	})
	if err != nil {
		metrics.IncrementFilterFallback()
		log.Warn("Filter extraction failed, querying without filter", zap.Error(err))
		return model.FilterCriteria{}
	}

	fields, err := decodeStringObject(reply, "due_date", "group", "priority")
	if err != nil {
		metrics.IncrementFilterFallback()
		log.Warn("Malformed filter reply, querying without filter",
			zap.String("reply", reply),
			zap.Error(err),
		)
		return model.FilterCriteria{}
	}

	filter := model.FilterCriteria{
		DueDate:  fields["due_date"],
		Group:    fields["group"],
		Priority: fields["priority"],
	}
	log.Info("Extracted filter",
		zap.String("due_date", filter.DueDate),
		zap.String("group", filter.Group),
		zap.String("priority", filter.Priority),
	)
	return filter
}
