package service

import (
	"context"
	"fmt"

	"taskbot/internal/llm"
	"taskbot/internal/model"
	"taskbot/pkg/logger"

	"go.uber.org/zap"
)

type TaskExtractor struct {
	llm    llm.Completer
	logger *zap.Logger
}

func NewTaskExtractor(completer llm.Completer, logger *zap.Logger) *TaskExtractor {
	return &TaskExtractor{llm: completer, logger: logger}
}

// Extract turns a chat message into a task record. A transport failure or a
// reply that is not a JSON object of string fields fails the whole
// extraction; no partial record is returned. Missing priority and group get
// their defaults.
func (e *TaskExtractor) Extract(ctx context.Context, message string) (*model.TaskRecord, error) {
	log := logger.WithTrace(ctx, e.logger)

	reply, err := e.llm.Complete(ctx, llm.CompletionRequest{
		Purpose:      "task",
		SystemPrompt: taskSystemPrompt,
		UserMessage:  message,
		MaxTokens:    taskMaxTokens,
		Temperature:  taskTemperature,
	})
	if err != nil {
		log.Error("Task extraction call failed", zap.Error(err))
		return nil, fmt.Errorf("extract task: %w", err)
	}

	fields, err := decodeStringObject(reply, "task_name", "due_date", "priority", "group")
	if err != nil {
		log.Error("Invalid JSON from language model", zap.String("reply", reply), zap.Error(err))
		return nil, fmt.Errorf("extract task: %w", err)
	}

	record := &model.TaskRecord{
		Name:     fields["task_name"],
		DueDate:  fields["due_date"],
		Priority: fields["priority"],
		Group:    fields["group"],
	}
	if record.Name == "" {
		record.Name = model.DefaultTaskName
	}
	if record.Priority == "" {
		record.Priority = model.DefaultPriority
	}
	if record.Group == "" {
		record.Group = model.DefaultGroup
	}

	log.Info("Extracted task",
		zap.String("task_name", record.Name),
		zap.String("due_date", record.DueDate),
		zap.String("priority", record.Priority),
		zap.String("group", record.Group),
	)
	return record, nil
}
