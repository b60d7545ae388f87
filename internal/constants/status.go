package constants

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusDone       TaskStatus = "done"
)

// WorkflowOrder lists the local statuses from lowest to highest workflow
// state. Reverse status lookups scan in this order so a non-injective
// mapping table always resolves to the same local status.
var WorkflowOrder = []TaskStatus{
	StatusTodo,
	StatusInProgress,
	StatusInReview,
	StatusDone,
}

func IsKnownStatus(s TaskStatus) bool {
	for _, known := range WorkflowOrder {
		if s == known {
			return true
		}
	}
	return false
}
