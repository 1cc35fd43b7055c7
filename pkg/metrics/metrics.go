package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LLM 调用延迟（毫秒）
	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_latency_ms",
			Help:    "Language model completion latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"purpose", "status"},
	)

	// Notion 调用延迟（秒）
	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_call_duration_seconds",
			Help:    "Structured database call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"operation", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Journal database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Journal queries slower than the configured threshold",
		},
		[]string{"command"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Ops HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// 意图分类计数
	IntentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_count",
			Help: "Classified message intents",
		},
		[]string{"intent"}, // create_task, query_tasks, unknown
	)

	TaskCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_created_count",
			Help: "Task creation attempts by outcome",
		},
		[]string{"status"}, // success, extract_failed, store_failed
	)

	FilterFallbackCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_fallback_count",
			Help: "Filter extractions that degraded to an unfiltered query",
		},
	)

	DigestSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_sent_count",
			Help: "Daily digest deliveries by outcome",
		},
		[]string{"status"},
	)

	UpdateCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_update_count",
			Help: "Inbound Telegram updates by kind",
		},
		[]string{"kind"}, // command, text, duplicate, ignored
	)

	CircuitStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "to"},
	)
)

// RecordLLMCallLatency 记录 LLM 调用延迟
func RecordLLMCallLatency(purpose, status string, duration time.Duration) {
	LLMCallLatency.WithLabelValues(purpose, status).Observe(float64(duration.Milliseconds()))
}

// RecordStoreCallDuration 记录 Notion 调用延迟
func RecordStoreCallDuration(operation, status string, duration time.Duration) {
	StoreCallDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery counts a slow journal query by its leading SQL keyword.
func IncrementSlowQuery(command string) {
	SlowQueryCount.WithLabelValues(command).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementIntent(intent string) {
	if intent == "" {
		intent = "unknown"
	}
	IntentCount.WithLabelValues(intent).Inc()
}

func IncrementTaskCreated(status string) {
	TaskCreatedCount.WithLabelValues(status).Inc()
}

func IncrementFilterFallback() {
	FilterFallbackCount.Inc()
}

func IncrementDigestSent(status string) {
	DigestSentCount.WithLabelValues(status).Inc()
}

func IncrementUpdate(kind string) {
	UpdateCount.WithLabelValues(kind).Inc()
}

func RecordCircuitTransition(name, to string) {
	CircuitStateChanges.WithLabelValues(name, to).Inc()
}
