package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Demandflow/DemandSync/internal/constants"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/notifier"
	"github.com/Demandflow/DemandSync/internal/registry"
	repository "github.com/Demandflow/DemandSync/internal/repositories"
	"github.com/Demandflow/DemandSync/internal/services"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

const testSecret = "test-webhook-secret"

type stubTracker struct {
	mu       sync.Mutex
	comments map[string][]string
}

func newStubTracker() *stubTracker {
	return &stubTracker{comments: make(map[string][]string)}
}

func (s *stubTracker) GetTask(ctx context.Context, taskID string) (*tracker.Task, error) {
	return &tracker.Task{ID: taskID}, nil
}

func (s *stubTracker) CreateTask(ctx context.Context, listID string, req *tracker.TaskRequest) (*tracker.Task, error) {
	return &tracker.Task{ID: "ext_new", Name: req.Name}, nil
}

func (s *stubTracker) UpdateTask(ctx context.Context, taskID string, req *tracker.TaskRequest) (*tracker.Task, error) {
	return &tracker.Task{ID: taskID, Name: req.Name}, nil
}

func (s *stubTracker) ListTasks(ctx context.Context, listID string) ([]tracker.Task, error) {
	return nil, nil
}

func (s *stubTracker) CreateComment(ctx context.Context, taskID, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[taskID] = append(s.comments[taskID], comment)
	return nil
}

func (s *stubTracker) CreateWebhook(ctx context.Context, spaceID, endpoint string, events []string) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) PublishTaskUpdate(ctx context.Context, organizationID string, update notifier.TaskUpdate) error {
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.Task{}, &model.Comment{}, &model.BoardMapping{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newTestServer(t *testing.T) (*echo.Echo, *repository.TaskRepository) {
	t.Helper()

	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	stub := newStubTracker()
	reg := registry.New(db, stub, "https://portal.example.com/api/webhooks/tracker")

	mapping := &model.BoardMapping{
		OrganizationID:  "org_123",
		ExternalListID:  "list_1",
		ExternalSpaceID: "space_1",
		Statuses: model.StatusTable{
			constants.StatusTodo:       "backlog",
			constants.StatusInProgress: "active task",
			constants.StatusInReview:   "for review",
			constants.StatusDone:       "complete",
		},
	}
	if err := reg.Register(context.Background(), mapping); err != nil {
		t.Fatalf("failed to register mapping: %v", err)
	}

	syncService := services.NewSyncService(reg, repo, stub, noopNotifier{}, testSecret, 2)
	taskService := services.NewTaskService(repo, stub, noopNotifier{})

	e := echo.New()
	Register(e, NewHandler(taskService, syncService, reg), 1000)

	return e, repo
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(e *echo.Echo, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/tracker", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEndpoint_InvalidSignature(t *testing.T) {
	e, repo := newTestServer(t)
	ctx := context.Background()

	task, _ := repo.CreateTask(ctx, repository.CreateTaskParams{
		Title:          "Draft proposal",
		OrganizationID: "org_123",
	})
	if err := repo.BindExternalID(ctx, task.ID, "ext_1"); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	body := `{"task_id":"ext_1","history_items":[{"field":"status","after":{"status":"complete"}}]}`
	rec := postWebhook(e, body, "bogus")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.String() != "Invalid signature" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	stored, _ := repo.FindByID(ctx, task.ID)
	if stored.Status != constants.StatusTodo {
		t.Error("store must not change on rejected delivery")
	}
}

func TestWebhookEndpoint_MissingSignatureHeader(t *testing.T) {
	e, _ := newTestServer(t)

	rec := postWebhook(e, `{"task_id":"ext_1","history_items":[]}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookEndpoint_UnknownTask(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{"task_id":"ext_ghost","history_items":[{"field":"status","after":{"status":"complete"}}]}`
	rec := postWebhook(e, body, sign(body))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.String() != "Task not found" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestWebhookEndpoint_Success(t *testing.T) {
	e, repo := newTestServer(t)
	ctx := context.Background()

	task, _ := repo.CreateTask(ctx, repository.CreateTaskParams{
		Title:          "Draft proposal",
		OrganizationID: "org_123",
	})
	if err := repo.BindExternalID(ctx, task.ID, "ext_1"); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	body := `{"task_id":"ext_1","history_items":[{"field":"status","after":{"status":"active task"}},{"field":"priority","after":{"priority":"high"}}]}`
	rec := postWebhook(e, body, sign(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "OK" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	stored, _ := repo.FindByID(ctx, task.ID)
	if stored.Status != constants.StatusInProgress {
		t.Errorf("expected in_progress, got %q", stored.Status)
	}
}

func TestCreateTaskEndpoint_Validation(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"description":"no title"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateAndGetTaskEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	payload := `{"title":"Draft proposal","description":"v1","status":"todo","organization_id":"org_123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/tasks?organization_id=org_123", nil)
	listRec := httptest.NewRecorder()
	e.ServeHTTP(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	if !strings.Contains(listRec.Body.String(), "Draft proposal") {
		t.Errorf("expected created task in listing, got %s", listRec.Body.String())
	}
}
