package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	contracts "taskbot/contracts/mq"
	"taskbot/internal/dates"
	"taskbot/internal/model"
	"taskbot/pkg/metrics"

	"go.uber.org/zap"
)

// Sender pushes an unsolicited message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// DigestJob sends the list of tasks due today to one chat.
type DigestJob struct {
	store   TaskRepository
	sender  Sender
	chatID  int64
	loc     *time.Location
	now     func() time.Time
	journal Journal
	events  EventPublisher
	logger  *zap.Logger
}

func NewDigestJob(store TaskRepository, sender Sender, chatID int64, loc *time.Location, journal Journal, events EventPublisher, logger *zap.Logger) *DigestJob {
	return &DigestJob{
		store:   store,
		sender:  sender,
		chatID:  chatID,
		loc:     loc,
		now:     time.Now,
		journal: journal,
		events:  events,
		logger:  logger,
	}
}

// WithClock replaces the time source that decides "today".
func (j *DigestJob) WithClock(now func() time.Time) *DigestJob {
	j.now = now
	return j
}

// Run queries today's tasks and delivers the digest. A delivery failure is
// logged and returned; the scheduler ignores it.
func (j *DigestJob) Run(ctx context.Context) error {
	today := j.now().In(j.loc).Format(dates.ISOLayout)
	log := j.logger.With(zap.Int64("chat_id", j.chatID), zap.String("date", today))
	log.Info("Daily digest started")

	result := j.store.Query(ctx, model.FilterCriteria{DueDate: today})

	text := msgDigestEmpty
	if len(result.Tasks) > 0 {
		text = taskList(headerDigest, result.Names())
	}

	entry := model.JournalEntry{ChatID: j.chatID, Detail: today}
	if err := j.sender.Send(ctx, j.chatID, text); err != nil {
		metrics.IncrementDigestSent("failed")
		log.Error("Failed to send daily digest", zap.Error(err))
		entry.Outcome = model.OutcomeDigestFailed
		j.recordJournal(ctx, entry)
		return fmt.Errorf("send digest: %w", err)
	}

	metrics.IncrementDigestSent("success")
	entry.Outcome = model.OutcomeDigestSent
	entry.Detail = today + " " + strconv.Itoa(len(result.Tasks))
	j.recordJournal(ctx, entry)

	if err := j.events.Publish(ctx, contracts.RoutingDigestSent, contracts.DigestSentPayload{
		ChatID: j.chatID,
		Date:   today,
		Count:  len(result.Tasks),
	}); err != nil {
		log.Warn("Failed to publish event", zap.String("routing_key", contracts.RoutingDigestSent), zap.Error(err))
	}

	log.Info("Daily digest sent", zap.Int("count", len(result.Tasks)))
	return nil
}

func (j *DigestJob) recordJournal(ctx context.Context, entry model.JournalEntry) {
	if err := j.journal.Record(ctx, entry); err != nil {
		j.logger.Warn("Failed to write journal entry", zap.Error(err))
	}
}
