// Package mapper translates task state between the local workflow vocabulary
// and an external tracker's per-board status and custom-field vocabulary.
// All functions are pure; translation gaps are logged, never fatal.
package mapper

import (
	"log"
	"strconv"
	"time"

	"github.com/Demandflow/DemandSync/internal/constants"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

// ToExternalStatus resolves the external status label for a local status.
// A status missing from the table falls back to the mapping's lowest
// workflow state's label, or to the raw status string if even that is
// unmapped. Both gaps are non-fatal.
func ToExternalStatus(status constants.TaskStatus, m *model.BoardMapping) string {
	if label, ok := m.Statuses[status]; ok {
		return label
	}

	log.Printf("mapper: no external label for local status %q (org %s), using default", status, m.OrganizationID)

	if label, ok := m.Statuses[constants.WorkflowOrder[0]]; ok {
		return label
	}
	return string(status)
}

// ToLocalStatus reverse-resolves an external label against the status table,
// scanning local statuses in workflow order so a non-injective table always
// picks the same entry. An unknown label is returned verbatim: the local
// model tolerates statuses outside its own enumerated set.
func ToLocalStatus(label string, m *model.BoardMapping) constants.TaskStatus {
	for _, status := range constants.WorkflowOrder {
		if m.Statuses[status] == label {
			return status
		}
	}
	return constants.TaskStatus(label)
}

// ToExternalRequest builds the tracker payload for a push. Custom fields
// without a configured mapping are dropped; the tracker has no field to
// receive them.
func ToExternalRequest(t *model.Task, m *model.BoardMapping) *tracker.TaskRequest {
	req := &tracker.TaskRequest{
		Name:        t.Title,
		Description: t.Description,
		Status:      ToExternalStatus(t.Status, m),
		Assignees:   []string(t.Assignees),
	}

	if t.DueDate != nil {
		ms := t.DueDate.UnixMilli()
		req.DueDate = &ms
	}

	for key, value := range t.CustomFields {
		cfg, ok := m.CustomFields[key]
		if !ok {
			continue
		}
		req.CustomFields = append(req.CustomFields, tracker.CustomField{
			ID:    cfg.FieldID,
			Value: value,
		})
	}

	return req
}

// ExternalUpdates is the local-model projection of an external task,
// produced by a pull and applied as a full field replace.
type ExternalUpdates struct {
	Title        string
	Description  string
	Status       constants.TaskStatus
	Assignees    model.StringList
	DueDate      *time.Time
	CustomFields model.JSONMap
	LastSyncedAt time.Time

	// ChangedAt is the tracker's own change time when it reports one,
	// otherwise the pull time. It seeds the per-field last-write-wins
	// baseline on the local record.
	ChangedAt time.Time
}

// FromExternalTask translates an external task into local updates. External
// custom fields without a configured mapping pass through under their
// external field id.
func FromExternalTask(et *tracker.Task, m *model.BoardMapping) *ExternalUpdates {
	updates := &ExternalUpdates{
		Title:        et.Name,
		Description:  et.Description,
		Status:       ToLocalStatus(et.Status.Status, m),
		DueDate:      ParseTrackerTime(et.DueDate),
		LastSyncedAt: time.Now().UTC(),
	}

	updates.ChangedAt = updates.LastSyncedAt
	if changed := ParseTrackerTime(et.DateUpdated); changed != nil {
		updates.ChangedAt = *changed
	}

	for _, a := range et.Assignees {
		updates.Assignees = append(updates.Assignees, a.ID.String())
	}

	if len(et.CustomFields) > 0 {
		updates.CustomFields = make(model.JSONMap, len(et.CustomFields))
		for _, field := range et.CustomFields {
			key := localFieldKey(field.ID, m)
			updates.CustomFields[key] = field.Value
		}
	}

	return updates
}

func localFieldKey(fieldID string, m *model.BoardMapping) string {
	for key, cfg := range m.CustomFields {
		if cfg.FieldID == fieldID {
			return key
		}
	}
	return fieldID
}

// ParseTrackerTime converts the tracker's millisecond-epoch string into a
// time. Empty or malformed values map to nil.
func ParseTrackerTime(ms string) *time.Time {
	if ms == "" {
		return nil
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(n).UTC()
	return &t
}
