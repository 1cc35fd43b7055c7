package model

import "time"

// Outcome values recorded in the interaction journal.
const (
	OutcomeWelcome       = "welcome"
	OutcomeUnrecognized  = "unrecognized"
	OutcomeCreated       = "created"
	OutcomeExtractFailed = "extract_failed"
	OutcomeStoreFailed   = "store_failed"
	OutcomeQueried       = "queried"
	OutcomeDigestSent    = "digest_sent"
	OutcomeDigestFailed  = "digest_failed"
)

// JournalEntry is one handled interaction, kept for operators.
type JournalEntry struct {
	ID        int64
	TraceID   string
	ChatID    int64
	Intent    string
	Outcome   string
	Detail    string
	CreatedAt time.Time
}
