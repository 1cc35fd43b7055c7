package mq

// Routing keys on the taskbot.events exchange.
const (
	RoutingTaskCreated  = "task.created"
	RoutingTasksQueried = "tasks.queried"
	RoutingDigestSent   = "digest.sent"
)

type TaskCreatedPayload struct {
	TraceID  string `json:"trace_id"`
	ChatID   int64  `json:"chat_id"`
	TaskName string `json:"task_name"`
	DueDate  string `json:"due_date,omitempty"`
	Priority string `json:"priority,omitempty"`
	Group    string `json:"group,omitempty"`
	Stored   bool   `json:"stored"`
}

type TasksQueriedPayload struct {
	TraceID  string `json:"trace_id"`
	ChatID   int64  `json:"chat_id"`
	DueDate  string `json:"due_date,omitempty"`
	Group    string `json:"group,omitempty"`
	Priority string `json:"priority,omitempty"`
	Count    int    `json:"count"`
}

type DigestSentPayload struct {
	ChatID int64  `json:"chat_id"`
	Date   string `json:"date"` // YYYY-MM-DD
	Count  int    `json:"count"`
}
