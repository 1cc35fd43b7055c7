package model

// Canonical values used by the Notion task database.
const (
	DefaultTaskName = "Unbenannte Aufgabe"
	DefaultPriority = "Mittel"
	DefaultGroup    = "Maxi"
)

// TaskRecord is a task extracted from a chat message. DueDate is free text
// until the store resolves it to an ISO date.
type TaskRecord struct {
	Name     string `json:"task_name"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
	Group    string `json:"group"`
}

// DisplayName returns Name, or the default name when it is blank.
func (t TaskRecord) DisplayName() string {
	if t.Name == "" {
		return DefaultTaskName
	}
	return t.Name
}

// FilterCriteria restricts a task query. An empty field means "no
// constraint on this field".
type FilterCriteria struct {
	DueDate  string `json:"due_date,omitempty"`
	Group    string `json:"group,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (f FilterCriteria) IsEmpty() bool {
	return f.DueDate == "" && f.Group == "" && f.Priority == ""
}

// TaskSummary is one row of a query result.
type TaskSummary struct {
	Name string `json:"name"`
}

// QueryResult lists tasks in the order the store returned them.
type QueryResult struct {
	Tasks []TaskSummary `json:"tasks"`
}

// Names returns the display names of all tasks.
func (r QueryResult) Names() []string {
	names := make([]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		names = append(names, t.Name)
	}
	return names
}
