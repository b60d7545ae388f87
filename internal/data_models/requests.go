package dto

type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	OrganizationID string `json:"organization_id"`
}

// UpdateTaskRequest carries a partial update; nil fields are untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type AddCommentRequest struct {
	Content     string `json:"content"`
	AuthorID    string `json:"author_id"`
	AuthorLabel string `json:"author_label"`
}

type RegisterMappingRequest struct {
	OrganizationID  string                        `json:"organization_id"`
	ExternalListID  string                        `json:"external_list_id"`
	ExternalSpaceID string                        `json:"external_space_id"`
	Statuses        map[string]string             `json:"statuses"`
	CustomFields    map[string]FieldMappingConfig `json:"custom_fields"`
}

type FieldMappingConfig struct {
	FieldID string `json:"field_id"`
	Type    string `json:"type"`
}
