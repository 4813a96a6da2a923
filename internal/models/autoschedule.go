package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// AutoScheduleStatus represents lifecycle phases for computed schedules.
type AutoScheduleStatus string

const (
	AutoScheduleStatusDraft   AutoScheduleStatus = "DRAFT"
	AutoScheduleStatusApplied AutoScheduleStatus = "APPLIED"
)

// AutoSchedule is one persisted version of a computed camp schedule. The
// matrix rows and columns are labelled by Universe so later versions can be
// reconciled by identity.
type AutoSchedule struct {
	ID         string             `db:"id" json:"id"`
	CampID     string             `db:"camp_id" json:"camp_id"`
	Version    int                `db:"version" json:"version"`
	Status     AutoScheduleStatus `db:"status" json:"status"`
	Objective  string             `db:"objective" json:"objective"`
	EventTypes types.JSONText     `db:"event_types" json:"event_types"`
	Universe   types.JSONText     `db:"universe" json:"universe"`
	Matrix     types.JSONText     `db:"matrix" json:"matrix"`
	Meta       types.JSONText     `db:"meta" json:"meta"`
	AppliedAt  *time.Time         `db:"applied_at" json:"applied_at,omitempty"`
	CreatedBy  *string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}

// IsApplied reports whether the version has been materialised in the program.
func (s *AutoSchedule) IsApplied() bool {
	return s.Status == AutoScheduleStatusApplied || s.AppliedAt != nil
}

// CanMutate returns ErrReadOnly once the version has been applied.
func (s *AutoSchedule) CanMutate() error {
	if s.IsApplied() {
		return appErrors.Clone(appErrors.ErrReadOnly, "schedule version "+s.ID+" has been applied and is read-only")
	}
	return nil
}

// MarkApplied moves a draft to APPLIED. APPLIED is terminal.
func (s *AutoSchedule) MarkApplied(now time.Time) error {
	if err := s.CanMutate(); err != nil {
		return err
	}
	applied := now.UTC()
	s.Status = AutoScheduleStatusApplied
	s.AppliedAt = &applied
	s.UpdatedAt = applied
	return nil
}

// AutoScheduleMeta is the lightweight view used in version lists.
type AutoScheduleMeta struct {
	ID          string             `json:"id"`
	Version     int                `json:"version"`
	Status      AutoScheduleStatus `json:"status"`
	Objective   string             `json:"objective"`
	Scheduled   int                `json:"scheduled"`
	Unscheduled int                `json:"unscheduled"`
	Optimal     bool               `json:"optimal"`
	AppliedAt   *time.Time         `json:"applied_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
