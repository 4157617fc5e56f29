// Package ports declares what the check service needs from infrastructure.
//
//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks CheckStore,DeliveryStore,AuditPublisher
package ports

import (
	"context"
	"time"

	"casecheck/internal/checks/models"
	id "casecheck/pkg/domain"
	"casecheck/pkg/platform/audit"
)

// CheckStore persists checks. FindByID returns sentinel.ErrNotFound for
// unknown ids; Update returns sentinel.ErrNotFound when the check is gone.
// Implementations must persist Outcomes in slice order.
type CheckStore interface {
	Create(ctx context.Context, check *models.Check) error
	FindByID(ctx context.Context, checkID id.CheckID) (*models.Check, error)
	Update(ctx context.Context, check *models.Check) error
	ListByMatter(ctx context.Context, matterID id.MatterID) ([]*models.Check, error)
}

// DeliveryStore remembers provider webhook deliveries. MarkDelivered reports
// true the first time a delivery id is seen within ttl.
type DeliveryStore interface {
	MarkDelivered(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, deliveryID string) error
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
