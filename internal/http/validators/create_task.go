package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Demandflow/DemandSync/internal/constants"
	dto "github.com/Demandflow/DemandSync/internal/data_models"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if r.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.OrganizationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "organization_id is required")
	}
	if r.Status != "" && !constants.IsKnownStatus(constants.TaskStatus(r.Status)) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	return nil
}

func ValidateUpdateTaskRequest(r *dto.UpdateTaskRequest) error {
	if r.Status != nil && !constants.IsKnownStatus(constants.TaskStatus(*r.Status)) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	return nil
}

func ValidateAddCommentRequest(r *dto.AddCommentRequest) error {
	if r.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if r.AuthorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "author_id is required")
	}
	return nil
}
