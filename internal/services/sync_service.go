package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	dto "github.com/Demandflow/DemandSync/internal/data_models"
	apperrors "github.com/Demandflow/DemandSync/internal/errors"
	"github.com/Demandflow/DemandSync/internal/mapper"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/notifier"
	"github.com/Demandflow/DemandSync/internal/registry"
	repository "github.com/Demandflow/DemandSync/internal/repositories"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

// fieldHandler applies one webhook history item to a local task and returns
// the changed fields to broadcast, or nil when the change was skipped.
type fieldHandler func(ctx context.Context, task *model.Task, m *model.BoardMapping, item dto.HistoryItem) (map[string]any, error)

// SyncService reconciles task state between the external tracker and the
// local store: push (local to external), pull (external to local), full
// board reconciliation, and webhook ingestion.
type SyncService struct {
	registry      *registry.Registry
	repo          *repository.TaskRepository
	tracker       tracker.Client
	notifier      notifier.Notifier
	webhookSecret []byte
	workers       int

	// binding tracks local task ids with a first-push in flight, so two
	// concurrent pushes of one unsynced task cannot both fire an external
	// create. The conditional bind in the store is the backstop.
	binding sync.Map

	fieldHandlers map[string]fieldHandler
}

func NewSyncService(
	reg *registry.Registry,
	repo *repository.TaskRepository,
	trackerClient tracker.Client,
	notif notifier.Notifier,
	webhookSecret string,
	workers int,
) *SyncService {
	if workers <= 0 {
		workers = 1
	}

	s := &SyncService{
		registry:      reg,
		repo:          repo,
		tracker:       trackerClient,
		notifier:      notif,
		webhookSecret: []byte(webhookSecret),
		workers:       workers,
	}

	// New trackable fields register here; the ingestion control flow never
	// changes.
	s.fieldHandlers = map[string]fieldHandler{
		"status":  s.applyStatusChange,
		"content": s.applyContentChange,
	}

	return s
}

// PushTask sends a local task's state to the external tracker. An unsynced
// task is created remotely and the returned external id is bound onto the
// local record; a synced task is updated in place with no local mutation.
func (s *SyncService) PushTask(ctx context.Context, taskID string) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}

	mapping, err := s.registry.Lookup(ctx, task.OrganizationID)
	if err != nil {
		return err
	}

	req := mapper.ToExternalRequest(task, mapping)

	if task.ExternalID != "" {
		if _, err := s.tracker.UpdateTask(ctx, task.ExternalID, req); err != nil {
			return fmt.Errorf("push task %s: %w", task.ID, err)
		}
		return nil
	}

	if _, inflight := s.binding.LoadOrStore(task.ID, struct{}{}); inflight {
		log.Printf("sync: push of task %s skipped, first push already in flight", task.ID)
		return nil
	}
	defer s.binding.Delete(task.ID)

	created, err := s.tracker.CreateTask(ctx, mapping.ExternalListID, req)
	if err != nil {
		return fmt.Errorf("push task %s: %w", task.ID, err)
	}

	if err := s.repo.BindExternalID(ctx, task.ID, created.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyBound) {
			// The racing push won the bind. The external record just
			// created is orphaned; leaking it is acceptable, overwriting
			// the winner's bind is not.
			log.Printf("sync: task %s already bound, external record %s orphaned", task.ID, created.ID)
			return nil
		}
		return fmt.Errorf("bind task %s: %w", task.ID, err)
	}

	return nil
}

// PullTask fetches one external task and replaces the synced fields of its
// local counterpart, then broadcasts the update to the organization.
func (s *SyncService) PullTask(ctx context.Context, externalID, organizationID string) error {
	mapping, err := s.registry.Lookup(ctx, organizationID)
	if err != nil {
		return err
	}

	external, err := s.tracker.GetTask(ctx, externalID)
	if err != nil {
		return fmt.Errorf("pull task %s: %w", externalID, err)
	}

	updates := mapper.FromExternalTask(external, mapping)

	task, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	if err := s.repo.ApplyExternalUpdates(ctx, task.ID, updates); err != nil {
		return fmt.Errorf("apply pull of %s: %w", externalID, err)
	}

	return s.publish(ctx, organizationID, task.ID, map[string]any{
		"title":       updates.Title,
		"description": updates.Description,
		"status":      updates.Status,
	})
}

// SyncBoard reconciles every external task in the organization's mapped
// list: known tasks get a full field replace, unknown ones are created
// locally with the external id bound at creation. Tasks are independent, so
// the list is processed by a small worker pool. The operation is
// idempotent; a second run with no external changes only refreshes
// timestamps.
func (s *SyncService) SyncBoard(ctx context.Context, organizationID string) error {
	mapping, err := s.registry.Lookup(ctx, organizationID)
	if err != nil {
		return err
	}

	externalTasks, err := s.tracker.ListTasks(ctx, mapping.ExternalListID)
	if err != nil {
		return fmt.Errorf("list tasks for %s: %w", organizationID, err)
	}

	jobs := make(chan tracker.Task)
	errCh := make(chan error, len(externalTasks))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for et := range jobs {
				if err := s.reconcileExternalTask(ctx, organizationID, mapping, &et); err != nil {
					errCh <- err
				}
			}
		}()
	}

	for _, et := range externalTasks {
		jobs <- et
	}
	close(jobs)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *SyncService) reconcileExternalTask(ctx context.Context, organizationID string, mapping *model.BoardMapping, et *tracker.Task) error {
	updates := mapper.FromExternalTask(et, mapping)

	task, err := s.repo.FindByExternalID(ctx, et.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTaskNotFound) {
			if _, err := s.repo.CreateFromExternal(ctx, organizationID, et.ID, updates); err != nil {
				return fmt.Errorf("materialize external task %s: %w", et.ID, err)
			}
			return nil
		}
		return err
	}

	if err := s.repo.ApplyExternalUpdates(ctx, task.ID, updates); err != nil {
		return fmt.Errorf("reconcile external task %s: %w", et.ID, err)
	}
	return nil
}

// HandleWebhookEvent verifies and ingests one webhook delivery. The
// signature check is a security boundary: on mismatch nothing is parsed and
// nothing is mutated. History items are applied in delivery order;
// unrecognized field names are skipped, so an ingestion succeeds partially
// by design rather than all-or-nothing.
func (s *SyncService) HandleWebhookEvent(ctx context.Context, rawBody []byte, signature string) error {
	if !s.verifySignature(rawBody, signature) {
		return fmt.Errorf("webhook: %w", apperrors.ErrInvalidSignature)
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("parse webhook event: %w", err)
	}

	// The payload carries only changed fields, so an unknown external id
	// cannot be auto-created here; only full reconciliation creates tasks.
	task, err := s.repo.FindByExternalID(ctx, event.TaskID)
	if err != nil {
		return err
	}

	mapping, err := s.registry.Lookup(ctx, task.OrganizationID)
	if err != nil {
		return err
	}

	for _, item := range event.HistoryItems {
		handler, ok := s.fieldHandlers[item.Field]
		if !ok {
			log.Printf("sync: ignoring webhook change for untracked field %q on task %s", item.Field, task.ID)
			continue
		}

		changed, err := handler(ctx, task, mapping, item)
		if err != nil {
			return fmt.Errorf("apply %s change to task %s: %w", item.Field, task.ID, err)
		}
		if len(changed) == 0 {
			continue
		}

		if err := s.publish(ctx, task.OrganizationID, task.ID, changed); err != nil {
			return err
		}
	}

	return nil
}

func (s *SyncService) applyStatusChange(ctx context.Context, task *model.Task, m *model.BoardMapping, item dto.HistoryItem) (map[string]any, error) {
	var after struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(item.After, &after); err != nil {
		return nil, fmt.Errorf("decode status change: %w", err)
	}

	changedAt := mapper.ParseTrackerTime(item.Date)
	if stale(changedAt, task.StatusChangedAt) {
		log.Printf("sync: stale status change for task %s dropped", task.ID)
		return nil, nil
	}

	status := mapper.ToLocalStatus(after.Status, m)
	effective := effectiveTime(changedAt)

	err := s.repo.UpdateFields(ctx, task.ID, map[string]any{
		"status":            status,
		"status_changed_at": effective,
	})
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.StatusChangedAt = &effective
	return map[string]any{"status": status}, nil
}

func (s *SyncService) applyContentChange(ctx context.Context, task *model.Task, m *model.BoardMapping, item dto.HistoryItem) (map[string]any, error) {
	var after struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(item.After, &after); err != nil {
		return nil, fmt.Errorf("decode content change: %w", err)
	}

	changedAt := mapper.ParseTrackerTime(item.Date)
	if stale(changedAt, task.DescriptionChangedAt) {
		log.Printf("sync: stale content change for task %s dropped", task.ID)
		return nil, nil
	}

	effective := effectiveTime(changedAt)

	err := s.repo.UpdateFields(ctx, task.ID, map[string]any{
		"description":            after.Content,
		"description_changed_at": effective,
	})
	if err != nil {
		return nil, err
	}

	task.Description = after.Content
	task.DescriptionChangedAt = &effective
	return map[string]any{"description": after.Content}, nil
}

// stale reports whether a change timestamped by the tracker predates the
// last recorded change of the same field. Deliveries without a timestamp
// fall back to delivery order and always apply.
func stale(changedAt, recorded *time.Time) bool {
	return changedAt != nil && recorded != nil && changedAt.Before(*recorded)
}

func effectiveTime(changedAt *time.Time) time.Time {
	if changedAt != nil {
		return *changedAt
	}
	return time.Now().UTC()
}

func (s *SyncService) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, s.webhookSecret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *SyncService) publish(ctx context.Context, organizationID, taskID string, fields map[string]any) error {
	err := s.notifier.PublishTaskUpdate(ctx, organizationID, notifier.TaskUpdate{
		ID:     taskID,
		Fields: fields,
	})
	if err != nil {
		return fmt.Errorf("broadcast update for task %s: %w", taskID, err)
	}
	return nil
}
