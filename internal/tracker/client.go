package tracker

import (
	"context"
	"encoding/json"
)

// Client is the surface of the external tracker the sync engine depends on.
// Implementations carry no business logic; they are pure transport.
type Client interface {
	GetTask(ctx context.Context, taskID string) (*Task, error)
	CreateTask(ctx context.Context, listID string, req *TaskRequest) (*Task, error)
	UpdateTask(ctx context.Context, taskID string, req *TaskRequest) (*Task, error)
	ListTasks(ctx context.Context, listID string) ([]Task, error)
	CreateComment(ctx context.Context, taskID, comment string) error
	CreateWebhook(ctx context.Context, spaceID, endpoint string, events []string) error
}

// Task is the tracker's representation of a task as returned by its API.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Status       Status        `json:"status"`
	Assignees    []Assignee    `json:"assignees"`
	DueDate      string        `json:"due_date,omitempty"`
	Parent       string        `json:"parent,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	DateUpdated  string        `json:"date_updated,omitempty"`
}

type Status struct {
	Status string `json:"status"`
	Color  string `json:"color,omitempty"`
}

type Assignee struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username,omitempty"`
	Email    string      `json:"email,omitempty"`
}

type CustomField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// TaskRequest is the payload for task create and update calls.
type TaskRequest struct {
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Status       string        `json:"status,omitempty"`
	Assignees    []string      `json:"assignees,omitempty"`
	DueDate      *int64        `json:"due_date,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// WebhookEvents is the set of tracker events a board mapping subscribes to.
var WebhookEvents = []string{
	"taskCreated",
	"taskUpdated",
	"taskDeleted",
	"taskStatusUpdated",
	"taskAssigneeUpdated",
	"taskDueDateUpdated",
	"taskCommentPosted",
}
