package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Demandflow/DemandSync/internal/constants"
	dto "github.com/Demandflow/DemandSync/internal/data_models"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/notifier"
	repository "github.com/Demandflow/DemandSync/internal/repositories"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

// TaskService is the store-facing task surface consumed by the UI layer.
// Handlers stay thin; the only cross-system behavior here is the push-only
// comment sync.
type TaskService struct {
	repo     *repository.TaskRepository
	tracker  tracker.Client
	notifier notifier.Notifier
}

func NewTaskService(repo *repository.TaskRepository, trackerClient tracker.Client, notif notifier.Notifier) *TaskService {
	return &TaskService{
		repo:     repo,
		tracker:  trackerClient,
		notifier: notif,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*model.Task, error) {
	return s.repo.CreateTask(ctx, repository.CreateTaskParams{
		Title:          req.Title,
		Description:    req.Description,
		Status:         constants.TaskStatus(req.Status),
		OrganizationID: req.OrganizationID,
	})
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context, organizationID string) ([]model.Task, error) {
	return s.repo.ListByOrganization(ctx, organizationID)
}

// UpdateTask applies a partial edit, then broadcasts the changed fields to
// the task's organization.
func (s *TaskService) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fields := make(map[string]any)
	changed := make(map[string]any)

	if req.Title != nil {
		fields["title"] = *req.Title
		changed["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
		fields["description_changed_at"] = now
		changed["description"] = *req.Description
	}
	if req.Status != nil {
		fields["status"] = constants.TaskStatus(*req.Status)
		fields["status_changed_at"] = now
		changed["status"] = constants.TaskStatus(*req.Status)
	}

	if len(fields) == 0 {
		return task, nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	err = s.notifier.PublishTaskUpdate(ctx, task.OrganizationID, notifier.TaskUpdate{
		ID:     task.ID,
		Fields: changed,
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast update for task %s: %w", task.ID, err)
	}

	return s.repo.FindByID(ctx, id)
}

// AddComment appends a comment locally and mirrors it to the external
// tracker when the task is synced. Comments sync push-only; the external
// copy carries the local author's display label.
func (s *TaskService) AddComment(ctx context.Context, taskID string, req dto.AddCommentRequest) (*model.Comment, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.AddComment(ctx, taskID, req.Content, req.AuthorID, req.AuthorLabel)
	if err != nil {
		return nil, err
	}

	if task.ExternalID != "" {
		external := req.Content
		if req.AuthorLabel != "" {
			external = fmt.Sprintf("%s: %s", req.AuthorLabel, req.Content)
		}
		if err := s.tracker.CreateComment(ctx, task.ExternalID, external); err != nil {
			return nil, fmt.Errorf("mirror comment on task %s: %w", taskID, err)
		}
	}

	return comment, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return s.repo.DeleteTask(ctx, id)
}
