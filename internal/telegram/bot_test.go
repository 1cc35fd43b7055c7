package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"taskbot/internal/service"
	"taskbot/pkg/trace"
	"taskbot/pkg/util"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	mu      sync.Mutex
	updates chan tgbotapi.Update
	sent    []tgbotapi.MessageConfig
	sendErr error
	stopped bool
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeHandler struct {
	mu       sync.Mutex
	welcomed []int64
	texts    []string
	traceIDs []string
}

func (h *fakeHandler) Welcome(ctx context.Context, chatID int64, r service.Replier) {
	h.mu.Lock()
	h.welcomed = append(h.welcomed, chatID)
	h.mu.Unlock()
	_ = r.Reply(ctx, "hallo")
}

func (h *fakeHandler) HandleMessage(ctx context.Context, _ int64, text string, r service.Replier) string {
	h.mu.Lock()
	h.texts = append(h.texts, text)
	h.traceIDs = append(h.traceIDs, trace.FromContext(ctx))
	h.mu.Unlock()
	_ = r.Reply(ctx, "ok: "+text)
	return "queried"
}

func textUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func commandUpdate(id int, chatID int64, command string) tgbotapi.Update {
	u := textUpdate(id, chatID, "/"+command)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command) + 1}}
	return u
}

func TestHandleUpdateDispatch(t *testing.T) {
	tests := []struct {
		name      string
		update    tgbotapi.Update
		wantWelc  int
		wantTexts []string
		wantSent  []string
	}{
		{"start command", commandUpdate(1, 10, "start"), 1, nil, []string{"hallo"}},
		{"text message", textUpdate(2, 10, "Welche Aufgaben habe ich?"), 0, []string{"Welche Aufgaben habe ich?"}, []string{"ok: Welche Aufgaben habe ich?"}},
		{"unknown command", commandUpdate(3, 10, "help"), 0, nil, nil},
		{"blank text", textUpdate(4, 10, "   "), 0, nil, nil},
		{"no message", tgbotapi.Update{UpdateID: 5}, 0, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			h := &fakeHandler{}
			bot := NewBot(api, h, nil, 0, zaptest.NewLogger(t))

			bot.HandleUpdate(context.Background(), tt.update)

			if len(h.welcomed) != tt.wantWelc {
				t.Errorf("welcomed %d times, want %d", len(h.welcomed), tt.wantWelc)
			}
			if strings.Join(h.texts, "|") != strings.Join(tt.wantTexts, "|") {
				t.Errorf("texts = %q, want %q", h.texts, tt.wantTexts)
			}
			var sent []string
			for _, m := range api.sent {
				if m.ChatID != 10 {
					t.Errorf("sent to chat %d", m.ChatID)
				}
				sent = append(sent, m.Text)
			}
			if strings.Join(sent, "|") != strings.Join(tt.wantSent, "|") {
				t.Errorf("sent = %q, want %q", sent, tt.wantSent)
			}
		})
	}
}

func TestHandleUpdateAssignsTraceID(t *testing.T) {
	h := &fakeHandler{}
	bot := NewBot(&fakeAPI{}, h, nil, 0, zaptest.NewLogger(t))

	bot.HandleUpdate(context.Background(), textUpdate(1, 1, "hi"))

	if len(h.traceIDs) != 1 || h.traceIDs[0] == "" {
		t.Fatalf("trace ids = %q", h.traceIDs)
	}
}

func TestHandleUpdateSkipsDuplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := &fakeHandler{}
	bot := NewBot(&fakeAPI{}, h, util.NewDeduper(rdb, 0, nil), 0, zaptest.NewLogger(t))

	bot.HandleUpdate(context.Background(), textUpdate(77, 1, "hi"))
	bot.HandleUpdate(context.Background(), textUpdate(77, 1, "hi"))

	if len(h.texts) != 1 {
		t.Fatalf("handled %d times, want 1", len(h.texts))
	}
}

func TestRunHandlesUpdatesUntilChannelCloses(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 3)}
	h := &fakeHandler{}
	bot := NewBot(api, h, nil, 5, zaptest.NewLogger(t))

	api.updates <- textUpdate(1, 1, "a")
	api.updates <- textUpdate(2, 1, "b")
	api.updates <- commandUpdate(3, 2, "start")
	close(api.updates)

	bot.Run(context.Background())

	if len(h.texts) != 2 || len(h.welcomed) != 1 {
		t.Fatalf("texts = %q, welcomed = %v", h.texts, h.welcomed)
	}
	if len(api.sent) != 3 {
		t.Errorf("sent %d replies, want 3", len(api.sent))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	bot := NewBot(api, &fakeHandler{}, nil, 5, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bot.Run(ctx)

	if !api.stopped {
		t.Fatal("expected StopReceivingUpdates on cancel")
	}
}

func TestSendWrapsError(t *testing.T) {
	boom := errors.New("Bad Request: chat not found")
	bot := NewBot(&fakeAPI{sendErr: boom}, &fakeHandler{}, nil, 0, zaptest.NewLogger(t))

	if err := bot.Send(context.Background(), 1, "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestSplitMessage(t *testing.T) {
	short := "Gefundene Aufgaben:\n- A\n"
	if got := splitMessage(short, 4096); len(got) != 1 || got[0] != short {
		t.Fatalf("short message split: %q", got)
	}

	lines := strings.Repeat("- Aufgabe\n", 10) // 100 chars
	parts := splitMessage(lines, 25)
	if strings.Join(parts, "") != lines {
		t.Fatalf("parts do not reassemble: %q", parts)
	}
	for _, p := range parts {
		if n := utf8.RuneCountInString(p); n > 25 {
			t.Errorf("part %q has %d chars", p, n)
		}
		if !strings.HasSuffix(p, "\n") {
			t.Errorf("part %q should end at a line boundary", p)
		}
	}

	long := strings.Repeat("ä", 60)
	parts = splitMessage(long, 25)
	if len(parts) != 3 || strings.Join(parts, "") != long {
		t.Fatalf("long line parts = %q", parts)
	}
}
