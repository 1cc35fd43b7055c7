package service

import (
	"context"
	"testing"

	"taskbot/internal/model"

	"go.uber.org/zap/zaptest"
)

func TestIntentClassifier(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		fail  bool
		want  model.Intent
	}{
		{"create", "create_task", false, model.IntentCreateTask},
		{"query with noise", "  QUERY_TASKS\n", false, model.IntentQueryTasks},
		{"unexpected label passes through", "Unknown", false, model.Intent("unknown")},
		{"transport failure", "", true, model.IntentNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newFakeCompleter()
			if tt.fail {
				llm.fail("intent", errUnreachable)
			} else {
				llm.reply("intent", tt.reply)
			}
			c := NewIntentClassifier(llm, zaptest.NewLogger(t))

			if got := c.Classify(context.Background(), "Erstelle eine Aufgabe"); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
			req := llm.requests[0]
			if req.MaxTokens != 10 || req.Temperature != 0 {
				t.Errorf("budget = %d/%v, want 10/0", req.MaxTokens, req.Temperature)
			}
		})
	}
}

func TestTaskExtractor(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    *model.TaskRecord
		wantErr bool
	}{
		{
			name:  "complete object",
			reply: `{"task_name":"Einkaufen","due_date":"next monday","priority":"Wichtig","group":"Familie"}`,
			want:  &model.TaskRecord{Name: "Einkaufen", DueDate: "next monday", Priority: "Wichtig", Group: "Familie"},
		},
		{
			name:  "defaults for missing fields",
			reply: `{"task_name":"Training","due_date":""}`,
			want:  &model.TaskRecord{Name: "Training", Priority: "Mittel", Group: "Maxi"},
		},
		{
			name:  "missing name",
			reply: `{"priority":null}`,
			want:  &model.TaskRecord{Name: "Unbenannte Aufgabe", Priority: "Mittel", Group: "Maxi"},
		},
		{
			name:  "code fenced",
			reply: "```json\n{\"task_name\":\"Lesen\",\"group\":\"Nina\"}\n```",
			want:  &model.TaskRecord{Name: "Lesen", Priority: "Mittel", Group: "Nina"},
		},
		{
			name:  "single line fence with language tag",
			reply: "```json {\"task_name\":\"Lesen\",\"group\":\"Nina\"}```",
			want:  &model.TaskRecord{Name: "Lesen", Priority: "Mittel", Group: "Nina"},
		},
		{
			name:  "single line fence glued to body",
			reply: "```json{\"task_name\":\"Lesen\"}```",
			want:  &model.TaskRecord{Name: "Lesen", Priority: "Mittel", Group: "Maxi"},
		},
		{
			name:  "fence without language tag",
			reply: "```\n{\"task_name\":\"Lesen\"}\n```",
			want:  &model.TaskRecord{Name: "Lesen", Priority: "Mittel", Group: "Maxi"},
		},
		{name: "plain text", reply: "Klar, ich lege die Aufgabe an!", wantErr: true},
		{name: "wrong type", reply: `{"task_name":42}`, wantErr: true},
		{name: "array", reply: `[{"task_name":"x"}]`, wantErr: true},
		{name: "trailing text", reply: `{"task_name":"x"} fertig`, wantErr: true},
		{name: "null", reply: `null`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newFakeCompleter().reply("task", tt.reply)
			e := NewTaskExtractor(llm, zaptest.NewLogger(t))

			got, err := e.Extract(context.Background(), "irgendwas")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Extract() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Errorf("expected no record on failure, got %+v", got)
				}
				return
			}
			if *got != *tt.want {
				t.Errorf("Extract() = %+v, want %+v", *got, *tt.want)
			}
			req := llm.requests[0]
			if req.MaxTokens != 150 || req.Temperature != 0.5 || req.UserMessage != "irgendwas" {
				t.Errorf("unexpected request %+v", req)
			}
		})
	}
}

func TestTaskExtractorTransportFailure(t *testing.T) {
	e := NewTaskExtractor(newFakeCompleter().fail("task", errUnreachable), zaptest.NewLogger(t))
	got, err := e.Extract(context.Background(), "x")
	if err == nil || got != nil {
		t.Fatalf("expected total failure, got %+v, %v", got, err)
	}
}

func TestFilterExtractor(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		fail  bool
		want  model.FilterCriteria
	}{
		{"all keys", `{"due_date":"2025-02-28","group":"Familie","priority":"hoch"}`, false,
			model.FilterCriteria{DueDate: "2025-02-28", Group: "Familie", Priority: "hoch"}},
		{"subset", `{"group":"Maxi"}`, false, model.FilterCriteria{Group: "Maxi"}},
		{"empty object", `{}`, false, model.FilterCriteria{}},
		{"malformed fails open", `due_date: morgen`, false, model.FilterCriteria{}},
		{"wrong type fails open", `{"priority":1}`, false, model.FilterCriteria{}},
		{"transport failure fails open", "", true, model.FilterCriteria{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newFakeCompleter()
			if tt.fail {
				llm.fail("filter", errUnreachable)
			} else {
				llm.reply("filter", tt.reply)
			}
			e := NewFilterExtractor(llm, zaptest.NewLogger(t))

			if got := e.Extract(context.Background(), "Was steht morgen an?"); got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
			req := llm.requests[0]
			if req.MaxTokens != 100 || req.Temperature != 0 {
				t.Errorf("budget = %d/%v, want 100/0", req.MaxTokens, req.Temperature)
			}
		})
	}
}
