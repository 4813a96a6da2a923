package dto

import "time"

// Solver names accepted by the calculate endpoints.
const (
	SolverExact  = "exact"
	SolverGreedy = "greedy"
)

// CalculateAutoScheduleRequest asks for a fresh schedule of the given event types.
type CalculateAutoScheduleRequest struct {
	CampID      string   `json:"-" validate:"required"`
	EventTypes  []string `json:"eventTypes" validate:"required,min=1,dive,required"`
	Solver      string   `json:"solver" validate:"omitempty,oneof=exact greedy"`
	RequestedBy string   `json:"-"`
}

// RecalculateAutoScheduleRequest asks for a schedule that stays as close as
// possible to a previous version. BaseID defaults to the latest version.
type RecalculateAutoScheduleRequest struct {
	CampID      string `json:"-" validate:"required"`
	BaseID      string `json:"baseId"`
	Solver      string `json:"solver" validate:"omitempty,oneof=exact greedy"`
	InPlace     bool   `json:"inPlace"`
	RequestedBy string `json:"-"`
}

// SlotRef describes a slot in responses.
type SlotRef struct {
	Venue     string    `json:"venue"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Duration  int       `json:"duration"`
	Session   string    `json:"session,omitempty"`
	EventType string    `json:"eventType"`
	Capacity  int       `json:"capacity"`
}

// PlacementView is one scheduled event.
type PlacementView struct {
	EventID   string  `json:"eventId"`
	EventType string  `json:"eventType"`
	Slot      SlotRef `json:"slot"`
}

// SlotChangeView reports a slot whose occupant changed.
type SlotChangeView struct {
	Slot       SlotRef `json:"slot"`
	OldEventID *string `json:"oldEventId"`
	NewEventID *string `json:"newEventId"`
	Stale      bool    `json:"stale"`
}

// EventChangeView reports an event whose slot changed.
type EventChangeView struct {
	EventID string   `json:"eventId"`
	Old     *SlotRef `json:"old"`
	New     *SlotRef `json:"new"`
	Stale   bool     `json:"stale"`
}

// UniverseDeltaView counts what appeared or vanished between two runs.
type UniverseDeltaView struct {
	EventsCreated []string `json:"eventsCreated"`
	EventsDeleted []string `json:"eventsDeleted"`
	SlotsCreated  int      `json:"slotsCreated"`
	SlotsDeleted  int      `json:"slotsDeleted"`
}

// AutoScheduleRunResponse summarises one calculate or recalculate run.
type AutoScheduleRunResponse struct {
	ID                string             `json:"id"`
	Version           int                `json:"version"`
	Status            string             `json:"status"`
	Objective         string             `json:"objective"`
	Solver            string             `json:"solver"`
	Events            int                `json:"events"`
	Slots             int                `json:"slots"`
	Scheduled         int                `json:"scheduled"`
	Unscheduled       int                `json:"unscheduled"`
	UnscheduledEvents []string           `json:"unscheduledEvents"`
	Score             int64              `json:"score"`
	Optimal           bool               `json:"optimal"`
	Nodes             int                `json:"nodes"`
	Message           string             `json:"message"`
	BaseID            string             `json:"baseId,omitempty"`
	Delta             *UniverseDeltaView `json:"delta,omitempty"`
	SlotChanges       []SlotChangeView   `json:"slotChanges,omitempty"`
	EventChanges      []EventChangeView  `json:"eventChanges,omitempty"`
}

// AutoScheduleJobResponse is returned when a calculation was queued.
type AutoScheduleJobResponse struct {
	JobID    string    `json:"jobId"`
	CampID   string    `json:"campId"`
	Queued   bool      `json:"queued"`
	Enqueued time.Time `json:"enqueuedAt"`
}

// AutoScheduleDetailResponse returns a stored version decoded into placements.
type AutoScheduleDetailResponse struct {
	ID                string          `json:"id"`
	CampID            string          `json:"campId"`
	Version           int             `json:"version"`
	Status            string          `json:"status"`
	Objective         string          `json:"objective"`
	EventTypes        []string        `json:"eventTypes"`
	Placements        []PlacementView `json:"placements"`
	UnscheduledEvents []string        `json:"unscheduledEvents"`
	AppliedAt         *time.Time      `json:"appliedAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// AutoScheduleDiffResponse compares two stored versions.
type AutoScheduleDiffResponse struct {
	FromID string            `json:"fromId"`
	ToID   string            `json:"toId"`
	Slots  []SlotChangeView  `json:"slots"`
	Events []EventChangeView `json:"events"`
}

// ApplyAutoScheduleResponse reports what applying a version changed in the program.
type ApplyAutoScheduleResponse struct {
	ID         string    `json:"id"`
	AppliedAt  time.Time `json:"appliedAt"`
	Removed    int64     `json:"removed"`
	Placements int       `json:"placements"`
}

// AutoScheduleExportQuery selects an export format.
type AutoScheduleExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// AutoScheduleExport is a rendered export file.
type AutoScheduleExport struct {
	Filename    string
	ContentType string
	Content     []byte
}
