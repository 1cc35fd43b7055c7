package model

// Intent is the classifier verdict. It carries the model's raw, normalized
// reply, so values other than the two known labels are possible.
type Intent string

const (
	IntentNone       Intent = ""
	IntentCreateTask Intent = "create_task"
	IntentQueryTasks Intent = "query_tasks"
)

// Known reports whether i is one of the two labels the pipeline acts on.
func (i Intent) Known() bool {
	return i == IntentCreateTask || i == IntentQueryTasks
}
