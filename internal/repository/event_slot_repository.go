package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

// EventSlotRepository materialises schedules as concrete program placements.
type EventSlotRepository struct {
	db *sqlx.DB
}

// NewEventSlotRepository builds repository.
func NewEventSlotRepository(db *sqlx.DB) *EventSlotRepository {
	return &EventSlotRepository{db: db}
}

func (r *EventSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteAutoscheduled removes every autoscheduled placement of the given
// event types so a schedule can be re-applied from scratch.
func (r *EventSlotRepository) DeleteAutoscheduled(ctx context.Context, exec sqlx.ExtContext, campID string, eventTypes []string) (int64, error) {
	const query = `DELETE FROM event_slots WHERE camp_id = $1 AND autoscheduled AND event_type = ANY($2)`
	result, err := r.exec(exec).ExecContext(ctx, query, campID, pq.Array(eventTypes))
	if err != nil {
		return 0, fmt.Errorf("delete autoscheduled event slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("autoscheduled event slots rows affected: %w", err)
	}
	return affected, nil
}

// BulkCreateAutoscheduled inserts placements tagged as autoscheduled.
func (r *EventSlotRepository) BulkCreateAutoscheduled(ctx context.Context, exec sqlx.ExtContext, slots []models.EventSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO event_slots (id, camp_id, event_id, event_type, venue, starts_at, ends_at, autoscheduled, autoschedule_id, created_at)
VALUES (:id, :camp_id, :event_id, :event_type, :venue, :starts_at, :ends_at, :autoscheduled, :autoschedule_id, :created_at)`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		slot.Autoscheduled = true
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("insert autoscheduled event slot: %w", err)
		}
	}
	return nil
}
