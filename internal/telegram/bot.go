// Package telegram connects the assistant to the Telegram Bot API via long
// polling.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"taskbot/config"
	"taskbot/internal/service"
	"taskbot/pkg/logger"
	"taskbot/pkg/metrics"
	"taskbot/pkg/trace"
	"taskbot/pkg/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLength is Telegram's limit for one text message, in characters.
const maxMessageLength = 4096

const handlerTimeout = 2 * time.Minute

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler answers chat input; *service.Assistant implements it.
type Handler interface {
	Welcome(ctx context.Context, chatID int64, r service.Replier)
	HandleMessage(ctx context.Context, chatID int64, text string, r service.Replier) string
}

type Bot struct {
	api         API
	handler     Handler
	dedup       *util.Deduper
	pollTimeout int
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewAPI authenticates against Telegram and routes the library's own log
// output through logger.
func NewAPI(cfg config.TelegramConfig, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	_ = tgbotapi.SetLogger(zap.NewStdLog(log.Named("tgbotapi")))

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = cfg.Debug
	log.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return api, nil
}

func NewBot(api API, handler Handler, dedup *util.Deduper, pollTimeout int, logger *zap.Logger) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	return &Bot{
		api:         api,
		handler:     handler,
		dedup:       dedup,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run polls for updates until ctx is cancelled, handling each update in its
// own goroutine. It waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram polling started", zap.Int("timeout", b.pollTimeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("Telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				// 与 polling 的 ctx 解耦，关闭时让已开始的处理跑完
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
				defer cancel()
				b.HandleUpdate(hctx, update)
			}(update)
		}
	}
}

// HandleUpdate dispatches one update: /start gets the welcome text, any
// other text goes through the assistant. Everything else is ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		metrics.IncrementUpdate("ignored")
		return
	}

	ctx, _ = trace.Ensure(ctx)
	log := logger.WithTrace(ctx, b.logger).With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("chat_id", msg.Chat.ID),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling update", zap.Any("panic", r))
		}
	}()

	if !b.dedup.AcquireOnce(ctx, "telegram", int64(update.UpdateID)) {
		metrics.IncrementUpdate("duplicate")
		log.Info("Skipping duplicate update")
		return
	}

	r := &chatReplier{bot: b, chatID: msg.Chat.ID}
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		metrics.IncrementUpdate("start")
		b.handler.Welcome(ctx, msg.Chat.ID, r)
	case msg.IsCommand():
		metrics.IncrementUpdate("ignored")
		log.Debug("Ignoring unknown command", zap.String("command", msg.Command()))
	case strings.TrimSpace(msg.Text) != "":
		metrics.IncrementUpdate("text")
		b.handler.HandleMessage(ctx, msg.Chat.ID, msg.Text, r)
	default:
		metrics.IncrementUpdate("ignored")
	}
}

// Send delivers text to chatID, splitting it when it exceeds the message
// size limit.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

type chatReplier struct {
	bot    *Bot
	chatID int64
}

func (r *chatReplier) Reply(ctx context.Context, text string) error {
	return r.bot.Send(ctx, r.chatID, text)
}

// splitMessage cuts text into chunks of at most limit characters, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
