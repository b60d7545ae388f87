package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Demandflow/DemandSync/internal/constants"
	model "github.com/Demandflow/DemandSync/internal/models"
)

// Board mappings are operational configuration, registered once per
// organization. A deployment can ship them as a YAML file registered at
// startup instead of calling the admin endpoint.
type mappingsFile struct {
	Mappings []mappingEntry `yaml:"mappings"`
}

type mappingEntry struct {
	OrganizationID  string                        `yaml:"organization_id"`
	ExternalListID  string                        `yaml:"external_list_id"`
	ExternalSpaceID string                        `yaml:"external_space_id"`
	Statuses        map[string]string             `yaml:"statuses"`
	CustomFields    map[string]model.FieldMapping `yaml:"custom_fields"`
}

func LoadBoardMappings(path string) ([]*model.BoardMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	var file mappingsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse mappings file: %w", err)
	}

	mappings := make([]*model.BoardMapping, 0, len(file.Mappings))
	for _, entry := range file.Mappings {
		if entry.OrganizationID == "" {
			return nil, fmt.Errorf("mappings file: entry missing organization_id")
		}

		statuses := make(model.StatusTable, len(entry.Statuses))
		for local, label := range entry.Statuses {
			status := constants.TaskStatus(local)
			if !constants.IsKnownStatus(status) {
				return nil, fmt.Errorf("mappings file: unknown local status %q for %s", local, entry.OrganizationID)
			}
			statuses[status] = label
		}

		var fields model.FieldTable
		if len(entry.CustomFields) > 0 {
			fields = make(model.FieldTable, len(entry.CustomFields))
			for key, cfg := range entry.CustomFields {
				fields[key] = cfg
			}
		}

		mappings = append(mappings, &model.BoardMapping{
			OrganizationID:  entry.OrganizationID,
			ExternalListID:  entry.ExternalListID,
			ExternalSpaceID: entry.ExternalSpaceID,
			Statuses:        statuses,
			CustomFields:    fields,
		})
	}

	return mappings, nil
}
