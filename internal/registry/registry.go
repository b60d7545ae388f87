// Package registry holds the per-organization board mappings that every
// sync operation resolves before touching the external tracker.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/Demandflow/DemandSync/internal/errors"
	model "github.com/Demandflow/DemandSync/internal/models"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

type Registry struct {
	db              *gorm.DB
	tracker         tracker.Client
	webhookEndpoint string
	locks           sync.Map // organization id -> *sync.Mutex
}

func New(db *gorm.DB, trackerClient tracker.Client, webhookEndpoint string) *Registry {
	return &Registry{
		db:              db,
		tracker:         trackerClient,
		webhookEndpoint: webhookEndpoint,
	}
}

// Register stores a board mapping and subscribes to the external tracker's
// webhook events for the mapped space. Registration is atomic: if the
// webhook subscription fails nothing is stored, and a prior mapping for the
// organization stays untouched. A successful call overwrites any prior
// mapping. Concurrent registrations for one organization serialize.
func (r *Registry) Register(ctx context.Context, m *model.BoardMapping) error {
	if m.OrganizationID == "" {
		return errors.New("board mapping requires an organization id")
	}

	lock := r.orgLock(m.OrganizationID)
	lock.Lock()
	defer lock.Unlock()

	if err := r.tracker.CreateWebhook(ctx, m.ExternalSpaceID, r.webhookEndpoint, tracker.WebhookEvents); err != nil {
		return fmt.Errorf("register mapping for %s: %v: %w", m.OrganizationID, err, apperrors.ErrRegistrationFailed)
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}},
			UpdateAll: true,
		}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("persist mapping for %s: %w", m.OrganizationID, err)
	}

	log.Printf("registry: mapping registered for organization %s (list %s, space %s)",
		m.OrganizationID, m.ExternalListID, m.ExternalSpaceID)
	return nil
}

// Lookup returns the mapping for an organization, or ErrMappingNotFound.
// Callers fail fast on a missing mapping rather than guessing defaults.
func (r *Registry) Lookup(ctx context.Context, organizationID string) (*model.BoardMapping, error) {
	var m model.BoardMapping
	err := r.db.WithContext(ctx).First(&m, "organization_id = ?", organizationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organization %s: %w", organizationID, apperrors.ErrMappingNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *Registry) orgLock(organizationID string) *sync.Mutex {
	lock, _ := r.locks.LoadOrStore(organizationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
