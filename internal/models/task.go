package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Demandflow/DemandSync/internal/constants"
)

type Task struct {
	ID             string               `gorm:"primaryKey;size:36" json:"id"`
	Title          string               `gorm:"not null" json:"title"`
	Description    string               `json:"description,omitempty"`
	Status         constants.TaskStatus `gorm:"type:varchar(32);not null" json:"status"`
	OrganizationID string               `gorm:"size:64;index;not null" json:"organization_id"`
	ExternalID     string               `gorm:"size:64;uniqueIndex:idx_tasks_external_id,where:external_id <> ''" json:"external_id,omitempty"`
	Assignees      StringList           `gorm:"type:text" json:"assignees,omitempty"`
	CustomFields   JSONMap              `gorm:"type:text" json:"custom_fields,omitempty"`
	ParentID       string               `gorm:"size:36" json:"parent_id,omitempty"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	LastSyncedAt   *time.Time           `json:"last_synced_at,omitempty"`

	// Per-field change times back the last-write-wins check applied to
	// webhook deliveries, which carry no ordering guarantee across events.
	StatusChangedAt      *time.Time `json:"status_changed_at,omitempty"`
	DescriptionChangedAt *time.Time `json:"description_changed_at,omitempty"`

	Comments []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

// Comment is append-only; rows are never mutated or deleted once written.
type Comment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID      string    `gorm:"size:36;index;not null" json:"task_id"`
	Content     string    `gorm:"not null" json:"content"`
	AuthorID    string    `gorm:"size:64;not null" json:"author_id"`
	AuthorLabel string    `gorm:"size:128" json:"author_label"`
	CreatedAt   time.Time `json:"created_at"`
}

// JSONMap stores an opaque key->value blob as a JSON text column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
}

// StringList stores an ordered list of identifiers as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
