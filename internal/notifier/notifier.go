package notifier

import "context"

// TaskUpdate is the single real-time event type: the task id plus the
// fields that changed, fanned out to every session joined to the
// originating organization's channel.
type TaskUpdate struct {
	ID     string
	Fields map[string]any
}

type Notifier interface {
	PublishTaskUpdate(ctx context.Context, organizationID string, update TaskUpdate) error
}
