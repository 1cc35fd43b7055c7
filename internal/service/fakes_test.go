package service

import (
	"context"
	"errors"
	"sync"

	"taskbot/internal/llm"
	"taskbot/internal/model"
)

var errUnreachable = errors.New("dial tcp: connection refused")

// fakeCompleter answers by call purpose; a purpose without a reply fails.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  map[string]string
	failures map[string]error
	requests []llm.CompletionRequest
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{replies: map[string]string{}, failures: map[string]error{}}
}

func (f *fakeCompleter) reply(purpose, text string) *fakeCompleter {
	f.replies[purpose] = text
	return f
}

func (f *fakeCompleter) fail(purpose string, err error) *fakeCompleter {
	f.failures[purpose] = err
	return f
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.Purpose]; ok {
		return "", err
	}
	if r, ok := f.replies[req.Purpose]; ok {
		return r, nil
	}
	return "", errUnreachable
}

func (f *fakeCompleter) purposes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Purpose)
	}
	return out
}

type fakeStore struct {
	mu       sync.Mutex
	created  []model.TaskRecord
	queries  []model.FilterCriteria
	createOK bool
	result   model.QueryResult
}

func (s *fakeStore) Create(_ context.Context, record model.TaskRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, record)
	return s.createOK
}

func (s *fakeStore) Query(_ context.Context, filter model.FilterCriteria) model.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, filter)
	return s.result
}

type recordingReplier struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return r.err
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func (j *fakeJournal) Record(_ context.Context, e model.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	topics []string
}

func (e *fakeEvents) Publish(_ context.Context, routingKey string, _ any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.topics = append(e.topics, routingKey)
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	chatID int64
	texts  []string
	err    error
}

func (s *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = chatID
	s.texts = append(s.texts, text)
	return s.err
}
