package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

// ProgramRepository reads the camp program the autoscheduler works from.
// It never writes.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListEvents returns the events of the given types that opted into autoscheduling.
func (r *ProgramRepository) ListEvents(ctx context.Context, campID string, eventTypes []string) ([]models.ProgramEvent, error) {
	const query = `SELECT id, camp_id, title, event_type, duration_minutes, expected_attendance, tags
FROM program_events WHERE camp_id = $1 AND event_type = ANY($2) AND autoschedule_enabled ORDER BY id`
	var events []models.ProgramEvent
	if err := r.db.SelectContext(ctx, &events, query, campID, pq.Array(eventTypes)); err != nil {
		return nil, fmt.Errorf("list program events: %w", err)
	}
	return events, nil
}

// ListSessions returns the sessions reserved for the given event types.
func (r *ProgramRepository) ListSessions(ctx context.Context, campID string, eventTypes []string) ([]models.EventSession, error) {
	const query = `SELECT id, camp_id, event_type, venue, capacity, starts_at, ends_at, slot_minutes
FROM event_sessions WHERE camp_id = $1 AND event_type = ANY($2) ORDER BY starts_at, venue, id`
	var sessions []models.EventSession
	if err := r.db.SelectContext(ctx, &sessions, query, campID, pq.Array(eventTypes)); err != nil {
		return nil, fmt.Errorf("list event sessions: %w", err)
	}
	return sessions, nil
}

// ListOccupyingSlots returns placements the run must schedule around: manual
// placements plus autoscheduled placements of event types outside the run.
func (r *ProgramRepository) ListOccupyingSlots(ctx context.Context, campID string, eventTypes []string) ([]models.EventSlot, error) {
	const query = `SELECT id, camp_id, event_id, event_type, venue, starts_at, ends_at, autoscheduled, autoschedule_id, created_at
FROM event_slots WHERE camp_id = $1 AND (NOT autoscheduled OR NOT (event_type = ANY($2))) ORDER BY starts_at, venue`
	var slots []models.EventSlot
	if err := r.db.SelectContext(ctx, &slots, query, campID, pq.Array(eventTypes)); err != nil {
		return nil, fmt.Errorf("list occupying event slots: %w", err)
	}
	return slots, nil
}

// ListVenueConflicts returns the pairwise venue conflict relation.
func (r *ProgramRepository) ListVenueConflicts(ctx context.Context, campID string) ([]models.VenueConflict, error) {
	const query = `SELECT venue, conflicting_venue FROM venue_conflicts WHERE camp_id = $1`
	var conflicts []models.VenueConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, campID); err != nil {
		return nil, fmt.Errorf("list venue conflicts: %w", err)
	}
	return conflicts, nil
}

// ListEventSpeakers links events of the given types to their speakers.
func (r *ProgramRepository) ListEventSpeakers(ctx context.Context, campID string, eventTypes []string) ([]models.EventSpeaker, error) {
	const query = `SELECT es.event_id, es.speaker_id
FROM event_speakers es JOIN program_events pe ON pe.id = es.event_id
WHERE pe.camp_id = $1 AND pe.event_type = ANY($2)`
	var links []models.EventSpeaker
	if err := r.db.SelectContext(ctx, &links, query, campID, pq.Array(eventTypes)); err != nil {
		return nil, fmt.Errorf("list event speakers: %w", err)
	}
	return links, nil
}

// ListSpeakerAvailability returns declared availability windows.
func (r *ProgramRepository) ListSpeakerAvailability(ctx context.Context, campID string) ([]models.SpeakerAvailability, error) {
	const query = `SELECT speaker_id, starts_at, ends_at FROM speaker_availability WHERE camp_id = $1 AND available ORDER BY speaker_id, starts_at`
	var windows []models.SpeakerAvailability
	if err := r.db.SelectContext(ctx, &windows, query, campID); err != nil {
		return nil, fmt.Errorf("list speaker availability: %w", err)
	}
	return windows, nil
}

// ListDeclaredSpeakers returns speakers that filled in their availability.
// Speakers outside this list are treated as always available.
func (r *ProgramRepository) ListDeclaredSpeakers(ctx context.Context, campID string) ([]string, error) {
	const query = `SELECT id FROM speakers WHERE camp_id = $1 AND availability_declared ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, campID); err != nil {
		return nil, fmt.Errorf("list declared speakers: %w", err)
	}
	return ids, nil
}

// Snapshot reads everything one scheduling run needs.
func (r *ProgramRepository) Snapshot(ctx context.Context, campID string, eventTypes []string) (*models.ProgramSnapshot, error) {
	var (
		snapshot models.ProgramSnapshot
		err      error
	)
	if snapshot.Events, err = r.ListEvents(ctx, campID, eventTypes); err != nil {
		return nil, err
	}
	if snapshot.Sessions, err = r.ListSessions(ctx, campID, eventTypes); err != nil {
		return nil, err
	}
	if snapshot.Manual, err = r.ListOccupyingSlots(ctx, campID, eventTypes); err != nil {
		return nil, err
	}
	if snapshot.Conflicts, err = r.ListVenueConflicts(ctx, campID); err != nil {
		return nil, err
	}
	if snapshot.Speakers, err = r.ListEventSpeakers(ctx, campID, eventTypes); err != nil {
		return nil, err
	}
	if snapshot.Availability, err = r.ListSpeakerAvailability(ctx, campID); err != nil {
		return nil, err
	}
	if snapshot.DeclaredSpeakers, err = r.ListDeclaredSpeakers(ctx, campID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
