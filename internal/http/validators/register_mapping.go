package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Demandflow/DemandSync/internal/constants"
	dto "github.com/Demandflow/DemandSync/internal/data_models"
)

func ValidateRegisterMappingRequest(r *dto.RegisterMappingRequest) error {
	if r.OrganizationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "organization_id is required")
	}
	if r.ExternalListID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "external_list_id is required")
	}
	if r.ExternalSpaceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "external_space_id is required")
	}
	if len(r.Statuses) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "statuses table is required")
	}
	for local := range r.Statuses {
		if !constants.IsKnownStatus(constants.TaskStatus(local)) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown local status in statuses table: "+local)
		}
	}
	return nil
}
