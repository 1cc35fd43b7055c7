package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskbot/config"
	"taskbot/internal/api"
	"taskbot/internal/dates"
	"taskbot/internal/httpserver"
	"taskbot/internal/llm"
	"taskbot/internal/notion"
	"taskbot/internal/repository"
	"taskbot/internal/scheduler"
	"taskbot/internal/service"
	"taskbot/internal/telegram"
	"taskbot/pkg/db"
	"taskbot/pkg/logger"
	"taskbot/pkg/mq"
	"taskbot/pkg/otel"
	"taskbot/pkg/redis"
	"taskbot/pkg/util"

	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg := config.Load()

	log := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid timezone", zap.Error(err))
	}

	log.Info("Starting taskbot...",
		zap.String("version", version),
		zap.String("timezone", loc.String()),
		zap.String("daily_time", cfg.Schedule.DailyTime),
		zap.Bool("journal", cfg.DB.Enabled()),
		zap.Bool("dedup", cfg.Redis.Addr != ""),
		zap.Bool("events", cfg.MQ.URL != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OpenTelemetry
	shutdownTracing, err := otel.Init(cfg.OTel, version, log)
	if err != nil {
		log.Fatal("Failed to init OpenTelemetry", zap.Error(err))
	}
	defer shutdownTracing()

	var ready httpserver.Readiness

	// Journal (Postgres, optional)
	var journal service.Journal = repository.NopJournal{}
	if cfg.DB.Enabled() {
		dbConn, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()

		journalRepo := repository.NewJournalRepository(dbConn)
		if err := journalRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to prepare journal table", zap.Error(err))
		}
		journal = journalRepo
		ready.DB = dbConn
	}

	// Update dedup (Redis, optional)
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	var dedup *util.Deduper
	if rdb != nil {
		defer rdb.Close()
		dedup = util.NewDeduper(rdb, 24*time.Hour, log)
		ready.Redis = httpserver.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Domain events (RabbitMQ, optional)
	var events service.EventPublisher = mq.NopPublisher{}
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
		ready.MQ = publisher
	}

	// Clients
	completer := llm.NewOpenAIClient(cfg.OpenAI, log)
	notionClient := notion.NewClient(cfg.Notion, log)
	store := repository.NewTaskStore(notionClient, cfg.Notion.DatabaseID, dates.NewResolver(), loc, log)

	// Services
	assistant := service.NewAssistant(
		service.NewIntentClassifier(completer, log),
		service.NewTaskExtractor(completer, log),
		service.NewFilterExtractor(completer, log),
		store,
		journal,
		events,
		log,
	)

	// Telegram
	tgAPI, err := telegram.NewAPI(cfg.Telegram, log)
	if err != nil {
		log.Fatal("Failed to init Telegram", zap.Error(err))
	}
	bot := telegram.NewBot(tgAPI, assistant, dedup, cfg.Telegram.PollTimeout, log)

	// Daily digest
	handlers := httpserver.Handlers{Message: api.NewMessageHandler(assistant)}
	sched := scheduler.New(loc, log)
	if cfg.Schedule.ChatID != 0 {
		digest := service.NewDigestJob(store, bot, cfg.Schedule.ChatID, loc, journal, events, log)
		if err := sched.ScheduleDaily("daily-digest", cfg.Schedule.DailyTime, digest); err != nil {
			log.Fatal("Failed to schedule daily digest", zap.Error(err))
		}
		handlers.Digest = api.NewDigestHandler(digest)
	} else {
		log.Warn("schedule.chat_id not set, daily digest disabled")
	}
	sched.Start()

	// HTTP Server (health, metrics, operator endpoints)
	router := httpserver.NewRouter(handlers, ready, cfg.JWT.Secret, log)
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("taskbot is fully initialized and running")

	// 阻塞直到收到退出信号
	bot.Run(ctx)

	log.Info("Shutting down taskbot gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("taskbot shutdown complete")
}
