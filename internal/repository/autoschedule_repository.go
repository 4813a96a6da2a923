package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

const autoScheduleColumns = `id, camp_id, version, status, objective, event_types, universe, matrix, meta, applied_at, created_by, created_at, updated_at`

// AutoScheduleRepository persists versioned autoschedule results.
type AutoScheduleRepository struct {
	db *sqlx.DB
}

// NewAutoScheduleRepository constructs repository.
func NewAutoScheduleRepository(db *sqlx.DB) *AutoScheduleRepository {
	return &AutoScheduleRepository{db: db}
}

func (r *AutoScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule assigning the next version for the camp.
func (r *AutoScheduleRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.AutoSchedule) error {
	if schedule == nil {
		return fmt.Errorf("autoschedule payload is nil")
	}
	if schedule.CampID == "" {
		return fmt.Errorf("camp_id is required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.AutoScheduleStatusDraft
	}
	if len(schedule.Meta) == 0 {
		schedule.Meta = types.JSONText(`{}`)
	}
	if len(schedule.EventTypes) == 0 {
		schedule.EventTypes = types.JSONText(`[]`)
	}
	if len(schedule.Universe) == 0 {
		schedule.Universe = types.JSONText(`{"events":[],"slots":[]}`)
	}
	if len(schedule.Matrix) == 0 {
		schedule.Matrix = types.JSONText(`[]`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM autoschedules WHERE camp_id = $1`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.CampID); err != nil {
		return fmt.Errorf("compute next autoschedule version: %w", err)
	}

	const insertQuery = `
INSERT INTO autoschedules (id, camp_id, version, status, objective, event_types, universe, matrix, meta, applied_at, created_by, created_at, updated_at)
VALUES (:id, :camp_id, :version, :status, :objective, :event_types, :universe, :matrix, :meta, :applied_at, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, schedule); err != nil {
		return fmt.Errorf("insert autoschedule: %w", err)
	}
	return nil
}

// FindByID loads a schedule version by its identifier.
func (r *AutoScheduleRepository) FindByID(ctx context.Context, id string) (*models.AutoSchedule, error) {
	query := `SELECT ` + autoScheduleColumns + ` FROM autoschedules WHERE id = $1`
	var schedule models.AutoSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindLatest returns the highest version stored for the camp.
func (r *AutoScheduleRepository) FindLatest(ctx context.Context, campID string) (*models.AutoSchedule, error) {
	query := `SELECT ` + autoScheduleColumns + ` FROM autoschedules WHERE camp_id = $1 ORDER BY version DESC LIMIT 1`
	var schedule models.AutoSchedule
	if err := r.db.GetContext(ctx, &schedule, query, campID); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByCamp returns every version for the camp, newest first.
func (r *AutoScheduleRepository) ListByCamp(ctx context.Context, campID string) ([]models.AutoSchedule, error) {
	query := `SELECT ` + autoScheduleColumns + ` FROM autoschedules WHERE camp_id = $1 ORDER BY version DESC`
	var schedules []models.AutoSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, campID); err != nil {
		return nil, fmt.Errorf("list autoschedules: %w", err)
	}
	return schedules, nil
}

// UpdateMatrix overwrites the result of a draft. Applied versions are never
// touched; sql.ErrNoRows is returned when nothing matched.
func (r *AutoScheduleRepository) UpdateMatrix(ctx context.Context, exec sqlx.ExtContext, schedule *models.AutoSchedule) error {
	if schedule == nil {
		return fmt.Errorf("autoschedule payload is nil")
	}
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE autoschedules SET objective = $1, universe = $2, matrix = $3, meta = $4, updated_at = $5 WHERE id = $6 AND applied_at IS NULL`
	result, err := r.exec(exec).ExecContext(ctx, query, schedule.Objective, schedule.Universe, schedule.Matrix, schedule.Meta, schedule.UpdatedAt, schedule.ID)
	if err != nil {
		return fmt.Errorf("update autoschedule matrix: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("autoschedule matrix rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkApplied flags a draft as applied. It matches drafts only, so a second
// apply reports sql.ErrNoRows.
func (r *AutoScheduleRepository) MarkApplied(ctx context.Context, exec sqlx.ExtContext, id string, appliedAt time.Time) error {
	const query = `UPDATE autoschedules SET status = $1, applied_at = $2, updated_at = $2 WHERE id = $3 AND applied_at IS NULL`
	result, err := r.exec(exec).ExecContext(ctx, query, models.AutoScheduleStatusApplied, appliedAt, id)
	if err != nil {
		return fmt.Errorf("mark autoschedule applied: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("autoschedule applied rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a draft version.
func (r *AutoScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM autoschedules WHERE id = $1 AND applied_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete autoschedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("autoschedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
