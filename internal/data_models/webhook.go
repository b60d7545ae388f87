package dto

import "encoding/json"

// WebhookEvent is the envelope the external tracker POSTs to the webhook
// endpoint: the external task id plus an ordered list of field changes.
// It carries only changed fields, never the full task.
type WebhookEvent struct {
	TaskID       string        `json:"task_id"`
	HistoryItems []HistoryItem `json:"history_items"`
}

// HistoryItem describes one field change. After holds the new value under a
// field-specific key (after.status, after.content, ...). Date is the
// tracker's millisecond-epoch change time; it may be absent.
type HistoryItem struct {
	Field string          `json:"field"`
	Date  string          `json:"date,omitempty"`
	After json.RawMessage `json:"after,omitempty"`
}
