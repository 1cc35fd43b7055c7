package service

import (
	"context"
	"strconv"

	contracts "taskbot/contracts/mq"
	"taskbot/internal/model"
	"taskbot/pkg/logger"
	"taskbot/pkg/metrics"
	"taskbot/pkg/trace"

	"go.uber.org/zap"
)

// TaskRepository persists and lists tasks. Implementations report failures
// as false or an empty result rather than as errors.
type TaskRepository interface {
	Create(ctx context.Context, record model.TaskRecord) bool
	Query(ctx context.Context, filter model.FilterCriteria) model.QueryResult
}

// Replier answers the chat an inbound message came from.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// Journal records handled interactions for operators.
type Journal interface {
	Record(ctx context.Context, entry model.JournalEntry) error
}

// EventPublisher emits domain events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Assistant routes one chat message through intent classification to either
// task creation or a task query, and always answers with a fixed reply.
type Assistant struct {
	classifier *IntentClassifier
	tasks      *TaskExtractor
	filters    *FilterExtractor
	store      TaskRepository
	journal    Journal
	events     EventPublisher
	logger     *zap.Logger
}

func NewAssistant(
	classifier *IntentClassifier,
	tasks *TaskExtractor,
	filters *FilterExtractor,
	store TaskRepository,
	journal Journal,
	events EventPublisher,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		classifier: classifier,
		tasks:      tasks,
		filters:    filters,
		store:      store,
		journal:    journal,
		events:     events,
		logger:     logger,
	}
}

// Welcome answers the /start command.
func (a *Assistant) Welcome(ctx context.Context, chatID int64, r Replier) {
	a.reply(ctx, r, msgWelcome)
	a.record(ctx, chatID, model.IntentNone, model.OutcomeWelcome, "")
}

// HandleMessage processes one text message and returns the outcome recorded
// in the journal.
func (a *Assistant) HandleMessage(ctx context.Context, chatID int64, text string, r Replier) string {
	log := logger.WithTrace(ctx, a.logger).With(zap.Int64("chat_id", chatID))

	intent := a.classifier.Classify(ctx, text)
	label := string(intent)
	if !intent.Known() {
		label = "unknown"
	}
	metrics.IncrementIntent(label)
	log.Info("Handling message", zap.String("intent", string(intent)))

	switch intent {
	case model.IntentQueryTasks:
		return a.handleQuery(ctx, chatID, text, r)
	case model.IntentCreateTask:
		return a.handleCreate(ctx, chatID, text, r)
	default:
		a.reply(ctx, r, msgUnrecognized)
		a.record(ctx, chatID, intent, model.OutcomeUnrecognized, "")
		return model.OutcomeUnrecognized
	}
}

func (a *Assistant) handleCreate(ctx context.Context, chatID int64, text string, r Replier) string {
	a.reply(ctx, r, msgProcessing)

	record, err := a.tasks.Extract(ctx, text)
	if err != nil || record == nil {
		metrics.IncrementTaskCreated(model.OutcomeExtractFailed)
		a.reply(ctx, r, msgExtractFailed)
		a.record(ctx, chatID, model.IntentCreateTask, model.OutcomeExtractFailed, "")
		return model.OutcomeExtractFailed
	}

	stored := a.store.Create(ctx, *record)
	a.publish(ctx, contracts.RoutingTaskCreated, contracts.TaskCreatedPayload{
		TraceID:  trace.FromContext(ctx),
		ChatID:   chatID,
		TaskName: record.DisplayName(),
		DueDate:  record.DueDate,
		Priority: record.Priority,
		Group:    record.Group,
		Stored:   stored,
	})

	if !stored {
		metrics.IncrementTaskCreated(model.OutcomeStoreFailed)
		a.reply(ctx, r, msgStoreFailed)
		a.record(ctx, chatID, model.IntentCreateTask, model.OutcomeStoreFailed, record.DisplayName())
		return model.OutcomeStoreFailed
	}

	metrics.IncrementTaskCreated(model.OutcomeCreated)
	a.reply(ctx, r, createdMessage(record.DisplayName()))
	a.record(ctx, chatID, model.IntentCreateTask, model.OutcomeCreated, record.DisplayName())
	return model.OutcomeCreated
}

func (a *Assistant) handleQuery(ctx context.Context, chatID int64, text string, r Replier) string {
	filter := a.filters.Extract(ctx, text)
	result := a.store.Query(ctx, filter)

	a.publish(ctx, contracts.RoutingTasksQueried, contracts.TasksQueriedPayload{
		TraceID:  trace.FromContext(ctx),
		ChatID:   chatID,
		DueDate:  filter.DueDate,
		Group:    filter.Group,
		Priority: filter.Priority,
		Count:    len(result.Tasks),
	})

	if len(result.Tasks) == 0 {
		a.reply(ctx, r, msgNoMatches)
	} else {
		a.reply(ctx, r, taskList(headerMatches, result.Names()))
	}
	a.record(ctx, chatID, model.IntentQueryTasks, model.OutcomeQueried, strconv.Itoa(len(result.Tasks)))
	return model.OutcomeQueried
}

func (a *Assistant) reply(ctx context.Context, r Replier, text string) {
	if err := r.Reply(ctx, text); err != nil {
		logger.WithTrace(ctx, a.logger).Error("Failed to send reply", zap.Error(err))
	}
}

func (a *Assistant) record(ctx context.Context, chatID int64, intent model.Intent, outcome, detail string) {
	entry := model.JournalEntry{
		TraceID: trace.FromContext(ctx),
		ChatID:  chatID,
		Intent:  string(intent),
		Outcome: outcome,
		Detail:  detail,
	}
	if err := a.journal.Record(ctx, entry); err != nil {
		logger.WithTrace(ctx, a.logger).Warn("Failed to write journal entry", zap.Error(err))
	}
}

func (a *Assistant) publish(ctx context.Context, routingKey string, payload any) {
	if err := a.events.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, a.logger).Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
