package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/pulsex/care-service/internal/events"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

// auditTrail writes activity entries inside the caller's transaction and
// publishes them once that transaction has committed
type auditTrail struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func newAuditTrail(publisher events.EventPublisher, logger *slog.Logger) *auditTrail {
	return &auditTrail{publisher: publisher, logger: logger}
}

// record appends the entry through tx; a failure aborts the transaction
func (a *auditTrail) record(ctx context.Context, tx repositories.Repository, actorID uint, action, entityType string, entityID *uint, details string) (*models.ActivityLog, error) {
	return a.append(ctx, tx, &models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

// recordChange is record for status changes; from and to land in Metadata
func (a *auditTrail) recordChange(ctx context.Context, tx repositories.Repository, actorID uint, action, entityType string, entityID *uint, details, from, to string) (*models.ActivityLog, error) {
	return a.append(ctx, tx, &models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Metadata:   datatypes.JSONMap{"from": from, "to": to},
	})
}

func (a *auditTrail) append(ctx context.Context, tx repositories.Repository, entry *models.ActivityLog) (*models.ActivityLog, error) {
	if err := tx.ActivityLog().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append activity log: %w", err)
	}
	return entry, nil
}

// emit publishes committed entries; delivery is best effort
func (a *auditTrail) emit(ctx context.Context, entries ...*models.ActivityLog) {
	if a.publisher == nil {
		return
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		event := &events.AuditEvent{
			EntryID:    entry.ID,
			ActorID:    entry.UserID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Details:    entry.Details,
			Metadata:   entry.Metadata,
			Timestamp:  entry.Timestamp,
		}
		if err := a.publisher.PublishAudit(ctx, event); err != nil {
			a.logger.Warn("Failed to publish audit event", "entry_id", entry.ID, "action", entry.Action, "error", err)
		}
	}
}

func entityRef(id uint) *uint {
	return &id
}
