package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Demandflow/DemandSync/internal/constants"
	dto "github.com/Demandflow/DemandSync/internal/data_models"
	apperrors "github.com/Demandflow/DemandSync/internal/errors"
	"github.com/Demandflow/DemandSync/internal/http/validators"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/registry"
	"github.com/Demandflow/DemandSync/internal/services"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw webhook
// body, computed by the tracker with the shared secret.
const SignatureHeader = "X-Signature"

type Handler struct {
	taskService *services.TaskService
	syncService *services.SyncService
	registry    *registry.Registry
}

func NewHandler(taskService *services.TaskService, syncService *services.SyncService, reg *registry.Registry) *Handler {
	return &Handler{
		taskService: taskService,
		syncService: syncService,
		registry:    reg,
	}
}

// HandleWebhook ingests a tracker webhook delivery. The body must be read
// raw: the signature covers the unparsed bytes.
func (h *Handler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	err = h.syncService.HandleWebhookEvent(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader))
	switch {
	case err == nil:
		return c.String(http.StatusOK, "OK")
	case errors.Is(err, apperrors.ErrInvalidSignature):
		log.Printf("webhook: rejected delivery with bad signature from %s", c.RealIP())
		return c.String(http.StatusUnauthorized, "Invalid signature")
	case errors.Is(err, apperrors.ErrTaskNotFound):
		return c.String(http.StatusNotFound, "Task not found")
	default:
		log.Printf("webhook: ingestion failed: %v", err)
		return c.String(http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return httpError(err, "failed to create task")
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "failed to fetch task")
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	organizationID := c.QueryParam("organization_id")
	if organizationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "organization_id is required")
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), organizationID)
	if err != nil {
		return httpError(err, "failed to list tasks")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) UpdateTask(c echo.Context) error {
	var req dto.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateUpdateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httpError(err, "failed to update task")
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err, "failed to delete task")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddComment(c echo.Context) error {
	var req dto.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateAddCommentRequest(&req); err != nil {
		return err
	}

	comment, err := h.taskService.AddComment(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httpError(err, "failed to add comment")
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *Handler) PushTask(c echo.Context) error {
	if err := h.syncService.PushTask(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err, "failed to push task")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) SyncBoard(c echo.Context) error {
	if err := h.syncService.SyncBoard(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err, "failed to sync board")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) RegisterMapping(c echo.Context) error {
	var req dto.RegisterMappingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateRegisterMappingRequest(&req); err != nil {
		return err
	}

	mapping := MappingFromRequest(&req)
	if err := h.registry.Register(c.Request().Context(), mapping); err != nil {
		return httpError(err, "failed to register mapping")
	}
	return c.JSON(http.StatusCreated, mapping)
}

// MappingFromRequest converts the registration payload into the stored
// mapping record.
func MappingFromRequest(req *dto.RegisterMappingRequest) *model.BoardMapping {
	statuses := make(model.StatusTable, len(req.Statuses))
	for local, label := range req.Statuses {
		statuses[constants.TaskStatus(local)] = label
	}

	var fields model.FieldTable
	if len(req.CustomFields) > 0 {
		fields = make(model.FieldTable, len(req.CustomFields))
		for key, cfg := range req.CustomFields {
			fields[key] = model.FieldMapping{FieldID: cfg.FieldID, Type: cfg.Type}
		}
	}

	return &model.BoardMapping{
		OrganizationID:  req.OrganizationID,
		ExternalListID:  req.ExternalListID,
		ExternalSpaceID: req.ExternalSpaceID,
		Statuses:        statuses,
		CustomFields:    fields,
	}
}

func httpError(err error, fallback string) error {
	var appErr *apperrors.Exception
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(appErr.StatusCode, appErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}
