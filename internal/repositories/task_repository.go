package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Demandflow/DemandSync/internal/constants"
	apperrors "github.com/Demandflow/DemandSync/internal/errors"
	"github.com/Demandflow/DemandSync/internal/mapper"
	model "github.com/Demandflow/DemandSync/internal/models"
)

// ErrAlreadyBound is returned when a bind races with another push that
// already attached an external id to the task.
var ErrAlreadyBound = errors.New("task already bound to an external id")

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type CreateTaskParams struct {
	Title          string
	Description    string
	Status         constants.TaskStatus
	OrganizationID string
}

func (r *TaskRepository) CreateTask(ctx context.Context, p CreateTaskParams) (*model.Task, error) {
	now := time.Now().UTC()
	status := p.Status
	if status == "" {
		status = constants.StatusTodo
	}

	task := &model.Task{
		ID:             uuid.NewString(),
		Title:          p.Title,
		Description:    p.Description,
		Status:         status,
		OrganizationID: p.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// CreateFromExternal materializes a local task from an external pull,
// binding the external id at creation time.
func (r *TaskRepository) CreateFromExternal(ctx context.Context, organizationID, externalID string, u *mapper.ExternalUpdates) (*model.Task, error) {
	now := time.Now().UTC()
	task := &model.Task{
		ID:             uuid.NewString(),
		Title:          u.Title,
		Description:    u.Description,
		Status:         u.Status,
		OrganizationID: organizationID,
		ExternalID:     externalID,
		Assignees:      u.Assignees,
		CustomFields:   u.CustomFields,
		DueDate:        u.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastSyncedAt:   &u.LastSyncedAt,

		StatusChangedAt:      &u.ChangedAt,
		DescriptionChangedAt: &u.ChangedAt,
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// ApplyExternalUpdates replaces the synced fields of a local task with the
// translated external state. A pull is a full replace of these fields.
func (r *TaskRepository) ApplyExternalUpdates(ctx context.Context, id string, u *mapper.ExternalUpdates) error {
	return r.UpdateFields(ctx, id, map[string]any{
		"title":                  u.Title,
		"description":            u.Description,
		"status":                 u.Status,
		"assignees":              u.Assignees,
		"custom_fields":          u.CustomFields,
		"due_date":               u.DueDate,
		"last_synced_at":         u.LastSyncedAt,
		"status_changed_at":      u.ChangedAt,
		"description_changed_at": u.ChangedAt,
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Preload("Comments").First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s: %w", id, apperrors.ErrTaskNotFound)
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("external task %s: %w", externalID, apperrors.ErrTaskNotFound)
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListByOrganization(ctx context.Context, organizationID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at desc").
		Find(&tasks).Error
	return tasks, err
}

// UpdateFields applies a partial column update and refreshes updated_at.
func (r *TaskRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, apperrors.ErrTaskNotFound)
	}
	return nil
}

// BindExternalID attaches an external id to a previously-unsynced task.
// The conditional update makes the bind exclusive per task: of two racing
// first-pushes only one row update can match, and the loser gets
// ErrAlreadyBound instead of overwriting the winner's bind.
func (r *TaskRepository) BindExternalID(ctx context.Context, id, externalID string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND (external_id IS NULL OR external_id = '')", id).
		Updates(map[string]any{
			"external_id":    externalID,
			"last_synced_at": now,
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyBound
	}
	return nil
}

func (r *TaskRepository) AddComment(ctx context.Context, taskID, content, authorID, authorLabel string) (*model.Comment, error) {
	if _, err := r.FindByID(ctx, taskID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		Content:     content,
		AuthorID:    authorID,
		AuthorLabel: authorLabel,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, apperrors.ErrTaskNotFound)
	}
	return nil
}
