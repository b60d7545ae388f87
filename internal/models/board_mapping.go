package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Demandflow/DemandSync/internal/constants"
)

// BoardMapping binds one organization's board to an external tracker
// list/space and carries the status and custom-field translation tables.
// At most one mapping exists per organization.
type BoardMapping struct {
	OrganizationID  string      `gorm:"primaryKey;size:64" json:"organization_id"`
	ExternalListID  string      `gorm:"size:64;not null" json:"external_list_id"`
	ExternalSpaceID string      `gorm:"size:64;not null" json:"external_space_id"`
	Statuses        StatusTable `gorm:"type:text;not null" json:"statuses"`
	CustomFields    FieldTable  `gorm:"type:text" json:"custom_fields,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// StatusTable maps a local status to the external tracker's status label.
// The table is total over local statuses in practice but not necessarily
// bijective: several local statuses may share one external label.
type StatusTable map[constants.TaskStatus]string

func (t StatusTable) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *StatusTable) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("cannot scan %T into StatusTable", src)
	}
}

// FieldMapping identifies one external custom field and its value type.
type FieldMapping struct {
	FieldID string `json:"field_id" yaml:"field_id"`
	Type    string `json:"type" yaml:"type"` // text, number, date, dropdown
}

// FieldTable maps a local custom-field key to its external counterpart.
type FieldTable map[string]FieldMapping

func (t FieldTable) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *FieldTable) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("cannot scan %T into FieldTable", src)
	}
}
