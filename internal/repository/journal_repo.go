package repository

import (
	"context"
	"fmt"
	"time"

	"taskbot/internal/model"
	"taskbot/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
)

const journalSchema = `
    CREATE TABLE IF NOT EXISTS interaction_log (
        id         BIGSERIAL PRIMARY KEY,
        trace_id   TEXT        NOT NULL,
        chat_id    BIGINT      NOT NULL,
        intent     TEXT        NOT NULL,
        outcome    TEXT        NOT NULL,
        detail     TEXT        NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )
`

// execer is the subset of *pgxpool.Pool the journal uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type JournalRepository struct {
	db execer
}

func NewJournalRepository(db execer) *JournalRepository {
	return &JournalRepository{db: db}
}

// EnsureSchema creates the interaction_log table if it is missing.
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("create interaction_log: %w", err)
	}
	return nil
}

func (r *JournalRepository) Record(ctx context.Context, entry model.JournalEntry) error {
	query := `
        INSERT INTO interaction_log (trace_id, chat_id, intent, outcome, detail, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `
	start := time.Now()
	_, err := r.db.Exec(ctx, query, entry.TraceID, entry.ChatID, entry.Intent, entry.Outcome, entry.Detail)
	metrics.RecordDBQueryDuration("insert", "interaction_log", time.Since(start))
	if err != nil {
		return fmt.Errorf("insert interaction_log: %w", err)
	}
	return nil
}

// NopJournal is used when no database is configured.
type NopJournal struct{}

func (NopJournal) Record(context.Context, model.JournalEntry) error { return nil }
