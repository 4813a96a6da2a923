package models

import (
	"time"

	"github.com/lib/pq"
)

// ProgramEvent is a talk, workshop or other program item waiting for a slot.
type ProgramEvent struct {
	ID                 string         `db:"id" json:"id"`
	CampID             string         `db:"camp_id" json:"camp_id"`
	Title              string         `db:"title" json:"title"`
	EventType          string         `db:"event_type" json:"event_type"`
	DurationMinutes    int            `db:"duration_minutes" json:"duration_minutes"`
	ExpectedAttendance int            `db:"expected_attendance" json:"expected_attendance"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
}

// EventSession reserves a venue for one event type over a time range.
type EventSession struct {
	ID          string    `db:"id" json:"id"`
	CampID      string    `db:"camp_id" json:"camp_id"`
	EventType   string    `db:"event_type" json:"event_type"`
	Venue       string    `db:"venue" json:"venue"`
	Capacity    int       `db:"capacity" json:"capacity"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	SlotMinutes *int      `db:"slot_minutes" json:"slot_minutes,omitempty"`
}

// EventSlot is a concrete placement of an event in the live program.
// Autoscheduled rows are owned by the autoscheduler; the rest are manual.
type EventSlot struct {
	ID             string    `db:"id" json:"id"`
	CampID         string    `db:"camp_id" json:"camp_id"`
	EventID        string    `db:"event_id" json:"event_id"`
	EventType      string    `db:"event_type" json:"event_type"`
	Venue          string    `db:"venue" json:"venue"`
	StartsAt       time.Time `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time `db:"ends_at" json:"ends_at"`
	Autoscheduled  bool      `db:"autoscheduled" json:"autoscheduled"`
	AutoScheduleID *string   `db:"autoschedule_id" json:"autoschedule_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// VenueConflict pairs two venues that cannot be used at the same time.
type VenueConflict struct {
	Venue            string `db:"venue" json:"venue"`
	ConflictingVenue string `db:"conflicting_venue" json:"conflicting_venue"`
}

// EventSpeaker links an event to one of its speakers.
type EventSpeaker struct {
	EventID   string `db:"event_id" json:"event_id"`
	SpeakerID string `db:"speaker_id" json:"speaker_id"`
}

// SpeakerAvailability is a window a speaker declared as available.
type SpeakerAvailability struct {
	SpeakerID string    `db:"speaker_id" json:"speaker_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
}

// ProgramSnapshot is everything one scheduling run reads from the program.
type ProgramSnapshot struct {
	Events       []ProgramEvent
	Sessions     []EventSession
	Manual       []EventSlot
	Conflicts    []VenueConflict
	Speakers     []EventSpeaker
	Availability []SpeakerAvailability
	// DeclaredSpeakers lists speakers that filled in their availability. A
	// declared speaker without windows is never available.
	DeclaredSpeakers []string
}
