package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"taskbot/config"
	"taskbot/internal/dates"
	"taskbot/internal/model"
	"taskbot/internal/notion"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// fakeNotion serves /v1/pages and /v1/databases/{id}/query from memory.
type fakeNotion struct {
	mu       sync.Mutex
	pages    []map[string]any
	queries  []map[string]any
	titles   []string
	pageSize int
	fail     bool
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("Notion-Version") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.fail {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"object":"error","status":502,"code":"internal_server_error","message":"upstream down"}`))
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Path {
	case "/v1/pages":
		f.pages = append(f.pages, body)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"object":"page","id":"page-%d"}`, len(f.pages))))
	case "/v1/databases/db-1/query":
		f.queries = append(f.queries, body)
		start := 0
		if c, ok := body["start_cursor"].(string); ok {
			start, _ = strconv.Atoi(c)
		}
		end := start + f.pageSize
		if end > len(f.titles) {
			end = len(f.titles)
		}
		type rt struct {
			PlainText string `json:"plain_text"`
		}
		var results []map[string]any
		for _, title := range f.titles[start:end] {
			var fragments []rt
			if title != "" {
				fragments = []rt{{PlainText: title}}
			}
			results = append(results, map[string]any{
				"object": "page",
				"id":     "p-" + title,
				"properties": map[string]any{
					"Name":  map[string]any{"type": "title", "title": fragments},
					"Datum": map[string]any{"type": "date", "date": nil},
				},
			})
		}
		resp := map[string]any{"object": "list", "results": results, "has_more": end < len(f.titles), "next_cursor": nil}
		if end < len(f.titles) {
			resp["next_cursor"] = strconv.Itoa(end)
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T, fake *fakeNotion) *TaskStore {
	t.Helper()
	return newTestStoreWithLogger(t, fake, zaptest.NewLogger(t))
}

func newTestStoreWithLogger(t *testing.T, fake *fakeNotion, log *zap.Logger) *TaskStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	client := notion.NewClient(config.NotionConfig{
		Token:   "secret",
		BaseURL: srv.URL,
		Version: "2022-06-28",
		Timeout: 5 * time.Second,
	}, log)

	// Wednesday 2025-03-05, 10:00 Berlin.
	wednesday := time.Date(2025, 3, 5, 10, 0, 0, 0, loc)
	return NewTaskStore(client, "db-1", dates.NewResolver(), loc, log).
		WithClock(func() time.Time { return wednesday })
}

func props(t *testing.T, page map[string]any) map[string]any {
	t.Helper()
	p, ok := page["properties"].(map[string]any)
	if !ok {
		t.Fatalf("page has no properties: %v", page)
	}
	return p
}

func TestCreateWithoutDueDateOmitsDatum(t *testing.T) {
	fake := &fakeNotion{}
	store := newTestStore(t, fake)

	ok := store.Create(context.Background(), model.TaskRecord{Name: "Einkaufen", Group: "familie", Priority: ""})
	if !ok {
		t.Fatal("Create returned false")
	}

	page := fake.pages[0]
	if page["parent"].(map[string]any)["database_id"] != "db-1" {
		t.Errorf("parent = %v", page["parent"])
	}
	p := props(t, page)
	if _, has := p["Datum"]; has {
		t.Error("Datum must be omitted without a due date")
	}
	if _, has := p["Priorität"]; has {
		t.Error("Priorität must be omitted when blank")
	}
	group := p["Gruppe"].(map[string]any)["select"].(map[string]any)["name"]
	if group != "Familie" {
		t.Errorf("Gruppe = %v, want Familie", group)
	}
	title := p["Name"].(map[string]any)["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if title != "Einkaufen" {
		t.Errorf("Name = %v", title)
	}
}

func TestCreateResolvesNextMondayFromWednesday(t *testing.T) {
	fake := &fakeNotion{}
	store := newTestStore(t, fake)

	if !store.Create(context.Background(), model.TaskRecord{Name: "Arzt", DueDate: "next monday", Priority: "Wichtig", Group: "Maxi"}) {
		t.Fatal("Create returned false")
	}

	p := props(t, fake.pages[0])
	start := p["Datum"].(map[string]any)["date"].(map[string]any)["start"]
	if start != "2025-03-10" {
		t.Errorf("Datum = %v, want 2025-03-10 (reference + 5 days)", start)
	}
	priority := p["Priorität"].(map[string]any)["select"].(map[string]any)["name"]
	if priority != "Wichtig" {
		t.Errorf("Priorität = %v", priority)
	}
}

func TestCreateWithUnparseableDueDateStillSucceeds(t *testing.T) {
	fake := &fakeNotion{}
	store := newTestStore(t, fake)

	if !store.Create(context.Background(), model.TaskRecord{Name: "Irgendwas", DueDate: "irgendwann mal", Group: "Maxi"}) {
		t.Fatal("Create returned false")
	}
	if _, has := props(t, fake.pages[0])["Datum"]; has {
		t.Error("Datum must be omitted when the due date cannot be parsed")
	}
}

func TestCreateReportsTransportFailure(t *testing.T) {
	store := newTestStore(t, &fakeNotion{fail: true})
	if store.Create(context.Background(), model.TaskRecord{Name: "x"}) {
		t.Fatal("expected false on Notion error")
	}
}

func TestQueryWithoutCriteriaReturnsEverything(t *testing.T) {
	fake := &fakeNotion{titles: []string{"a", "b", "", "d", "e"}, pageSize: 2}
	store := newTestStore(t, fake)

	res := store.Query(context.Background(), model.FilterCriteria{})

	want := []string{"a", "b", "Unbenannte Aufgabe", "d", "e"}
	got := res.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
	if len(fake.queries) != 3 {
		t.Errorf("expected 3 paged requests, got %d", len(fake.queries))
	}
	for _, q := range fake.queries {
		if _, has := q["filter"]; has {
			t.Errorf("unfiltered query must not send a filter: %v", q)
		}
	}
}

func TestQueryBuildsConjunctiveFilter(t *testing.T) {
	fake := &fakeNotion{pageSize: 10}
	store := newTestStore(t, fake)

	store.Query(context.Background(), model.FilterCriteria{DueDate: "2025-02-28", Group: "Familie", Priority: "hoch"})

	and := fake.queries[0]["filter"].(map[string]any)["and"].([]any)
	if len(and) != 3 {
		t.Fatalf("and = %v, want 3 conditions", and)
	}
	date := and[0].(map[string]any)
	if date["property"] != "Datum" || date["date"].(map[string]any)["equals"] != "2025-02-28" {
		t.Errorf("date condition = %v", date)
	}
	group := and[1].(map[string]any)
	if group["property"] != "Gruppe" || group["select"].(map[string]any)["equals"] != "Familie" {
		t.Errorf("group condition = %v", group)
	}
	priority := and[2].(map[string]any)
	if priority["property"] != "Priorität" || priority["select"].(map[string]any)["equals"] != "hoch" {
		t.Errorf("priority condition = %v", priority)
	}
}

func TestQueryDropsOnlyUnparseableDate(t *testing.T) {
	fake := &fakeNotion{pageSize: 10}
	store := newTestStore(t, fake)

	store.Query(context.Background(), model.FilterCriteria{DueDate: "irgendwann mal", Group: "Maxi"})

	and := fake.queries[0]["filter"].(map[string]any)["and"].([]any)
	if len(and) != 1 || and[0].(map[string]any)["property"] != "Gruppe" {
		t.Fatalf("and = %v, want only the group condition", and)
	}
}

func TestQueryReturnsEmptyOnFailure(t *testing.T) {
	store := newTestStore(t, &fakeNotion{fail: true, titles: []string{"a"}})
	if res := store.Query(context.Background(), model.FilterCriteria{}); len(res.Tasks) != 0 {
		t.Fatalf("expected empty result, got %v", res.Tasks)
	}
}

func TestQueryWarnsWhenPageCapIsHit(t *testing.T) {
	titles := make([]string, maxQueryPages+1)
	for i := range titles {
		titles[i] = "t" + strconv.Itoa(i)
	}
	fake := &fakeNotion{titles: titles, pageSize: 1}
	core, logs := observer.New(zapcore.InfoLevel)
	store := newTestStoreWithLogger(t, fake, zap.New(core))

	res := store.Query(context.Background(), model.FilterCriteria{})

	if len(fake.queries) != maxQueryPages {
		t.Errorf("requests = %d, want %d", len(fake.queries), maxQueryPages)
	}
	if len(res.Tasks) != maxQueryPages {
		t.Errorf("tasks = %d, want %d", len(res.Tasks), maxQueryPages)
	}
	warned := logs.FilterMessageSnippet("truncated").FilterField(zap.Int("pages", maxQueryPages))
	if warned.Len() != 1 || warned.All()[0].Level != zapcore.WarnLevel {
		t.Errorf("expected one truncation warning, got %v", logs.All())
	}
}

func TestQueryDoesNotWarnWhenResultsFitTheCap(t *testing.T) {
	titles := make([]string, maxQueryPages)
	for i := range titles {
		titles[i] = "t" + strconv.Itoa(i)
	}
	fake := &fakeNotion{titles: titles, pageSize: 1}
	core, logs := observer.New(zapcore.InfoLevel)
	store := newTestStoreWithLogger(t, fake, zap.New(core))

	res := store.Query(context.Background(), model.FilterCriteria{})

	if len(res.Tasks) != maxQueryPages {
		t.Errorf("tasks = %d, want %d", len(res.Tasks), maxQueryPages)
	}
	if n := logs.FilterMessageSnippet("truncated").Len(); n != 0 {
		t.Errorf("unexpected truncation warning (%d)", n)
	}
}

func TestQueryWithOnlyUnparseableDateSendsNoFilter(t *testing.T) {
	fake := &fakeNotion{pageSize: 10}
	store := newTestStore(t, fake)

	store.Query(context.Background(), model.FilterCriteria{DueDate: "irgendwann mal"})

	if _, has := fake.queries[0]["filter"]; has {
		t.Errorf("expected no filter, got %v", fake.queries[0]["filter"])
	}
}
