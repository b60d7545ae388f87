package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"
)

// RedisNotifier fans task-update events out over a Redis channel per
// organization. Browser-facing gateways subscribe to their organization's
// channel and forward events to connected sessions.
type RedisNotifier struct {
	client rueidis.Client
}

func NewRedisNotifier(client rueidis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) PublishTaskUpdate(ctx context.Context, organizationID string, update TaskUpdate) error {
	payload := make(map[string]any, len(update.Fields)+1)
	for k, v := range update.Fields {
		payload[k] = v
	}
	payload["id"] = update.ID

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode task update: %w", err)
	}

	cmd := n.client.B().Publish().Channel(Channel(organizationID)).Message(string(raw)).Build()
	return n.client.Do(ctx, cmd).Error()
}

// Channel names the pub/sub channel for an organization's task updates.
func Channel(organizationID string) string {
	return "org:" + organizationID + ":task_updates"
}
