package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/camp-autoscheduler/internal/dto"
	"github.com/noah-isme/camp-autoscheduler/internal/models"
	"github.com/noah-isme/camp-autoscheduler/pkg/autoschedule"
	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// storedUniverse is the persisted label set of a matrix. Attributes are kept
// next to identities so later diffs can tell a moved slot from a reshaped one.
type storedUniverse struct {
	Events []storedEvent `json:"events"`
	Slots  []storedSlot  `json:"slots"`
}

type storedEvent struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Duration int      `json:"duration"`
	Demand   int      `json:"demand"`
	Tags     []string `json:"tags,omitempty"`
}

type storedSlot struct {
	Venue     string    `json:"venue"`
	StartsAt  time.Time `json:"startsAt"`
	Duration  int       `json:"duration"`
	Session   string    `json:"session,omitempty"`
	EventType string    `json:"eventType"`
	Capacity  int       `json:"capacity"`
}

// storedMeta carries run statistics alongside a version.
type storedMeta struct {
	Solver            string   `json:"solver"`
	Tick              int      `json:"tick"`
	Score             int64    `json:"score"`
	Optimal           bool     `json:"optimal"`
	Nodes             int      `json:"nodes"`
	Scheduled         int      `json:"scheduled"`
	Unscheduled       int      `json:"unscheduled"`
	UnscheduledEvents []string `json:"unscheduledEvents"`
	BaseID            string   `json:"baseId,omitempty"`
	ElapsedMs         int64    `json:"elapsedMs"`
}

// decodedVersion is a stored version turned back into domain values.
type decodedVersion struct {
	record     *models.AutoSchedule
	eventTypes []string
	events     []autoschedule.Event
	slots      []autoschedule.Slot
	matrix     autoschedule.Matrix
	schedule   autoschedule.Schedule
	meta       storedMeta
}

func (d *decodedVersion) universe() autoschedule.Universe {
	return autoschedule.UniverseOf(d.events, d.slots)
}

func encodeUniverse(events []autoschedule.Event, slots []autoschedule.Slot) (types.JSONText, error) {
	u := storedUniverse{
		Events: make([]storedEvent, len(events)),
		Slots:  make([]storedSlot, len(slots)),
	}
	for i, event := range events {
		u.Events[i] = storedEvent{
			ID:       string(event.ID),
			Type:     event.Type,
			Duration: event.Duration,
			Demand:   event.Demand,
			Tags:     event.Tags,
		}
	}
	for j, slot := range slots {
		u.Slots[j] = storedSlot{
			Venue:     slot.Venue,
			StartsAt:  slot.StartsAt.UTC(),
			Duration:  slot.Duration,
			Session:   slot.Session,
			EventType: slot.EventType,
			Capacity:  slot.Capacity,
		}
	}
	return marshalJSONText(u)
}

func decodeUniverse(raw types.JSONText) ([]autoschedule.Event, []autoschedule.Slot, error) {
	var u storedUniverse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, nil, err
		}
	}
	events := make([]autoschedule.Event, len(u.Events))
	for i, e := range u.Events {
		events[i] = autoschedule.Event{
			ID:       autoschedule.EventID(e.ID),
			Type:     e.Type,
			Duration: e.Duration,
			Demand:   e.Demand,
			Tags:     e.Tags,
		}
	}
	slots := make([]autoschedule.Slot, len(u.Slots))
	for j, s := range u.Slots {
		slots[j] = autoschedule.Slot{
			Venue:     s.Venue,
			StartsAt:  s.StartsAt.UTC(),
			Duration:  s.Duration,
			Session:   s.Session,
			EventType: s.EventType,
			Capacity:  s.Capacity,
		}
	}
	return events, slots, nil
}

func marshalJSONText(value interface{}) (types.JSONText, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return types.JSONText(payload), nil
}

// decodeVersion rebuilds the schedule stored in record.
func decodeVersion(record *models.AutoSchedule) (*decodedVersion, error) {
	events, slots, err := decodeUniverse(record.Universe)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule universe")
	}

	var matrix autoschedule.Matrix
	if len(record.Matrix) > 0 {
		if err := json.Unmarshal(record.Matrix, &matrix); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule matrix")
		}
	}
	if matrix == nil {
		matrix = autoschedule.NewMatrix(len(events), len(slots))
	}

	schedule, err := autoschedule.MatrixToSchedule(matrix, events, slots)
	if err != nil {
		return nil, err
	}

	var eventTypes []string
	if len(record.EventTypes) > 0 {
		if err := json.Unmarshal(record.EventTypes, &eventTypes); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule event types")
		}
	}

	var meta storedMeta
	if len(record.Meta) > 0 {
		if err := json.Unmarshal(record.Meta, &meta); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode schedule meta")
		}
	}

	return &decodedVersion{
		record:     record,
		eventTypes: eventTypes,
		events:     events,
		slots:      slots,
		matrix:     matrix,
		schedule:   schedule,
		meta:       meta,
	}, nil
}

// fillVersion writes a solver result into record.
func fillVersion(record *models.AutoSchedule, events []autoschedule.Event, slots []autoschedule.Slot, result *autoschedule.Result, meta storedMeta) error {
	universe, err := encodeUniverse(events, slots)
	if err != nil {
		return err
	}
	matrix, err := marshalJSONText(autoschedule.ScheduleToMatrix(result.Schedule, events, slots))
	if err != nil {
		return err
	}

	meta.Score = result.Score
	meta.Optimal = result.Optimal
	meta.Nodes = result.Nodes
	meta.Scheduled = len(result.Schedule)
	meta.Unscheduled = len(result.Unscheduled)
	meta.UnscheduledEvents = eventIDs(result.Unscheduled)
	encodedMeta, err := marshalJSONText(meta)
	if err != nil {
		return err
	}

	record.Objective = result.Objective
	record.Universe = universe
	record.Matrix = matrix
	record.Meta = encodedMeta
	return nil
}

// programInput converts a snapshot into annotated events and generated slots.
func programInput(snapshot *models.ProgramSnapshot, tick int) ([]autoschedule.Event, []autoschedule.Slot, error) {
	sessions := make([]autoschedule.Session, len(snapshot.Sessions))
	for i, s := range snapshot.Sessions {
		sessions[i] = autoschedule.Session{
			ID:        s.ID,
			EventType: s.EventType,
			Venue:     s.Venue,
			Capacity:  s.Capacity,
			StartsAt:  s.StartsAt.UTC(),
			EndsAt:    s.EndsAt.UTC(),
		}
		if s.SlotMinutes != nil {
			sessions[i].SlotLength = *s.SlotMinutes
		}
	}
	slots, err := autoschedule.GenerateAllSlots(sessions, tick)
	if err != nil {
		return nil, nil, err
	}

	events := make([]autoschedule.Event, len(snapshot.Events))
	for i, e := range snapshot.Events {
		events[i] = autoschedule.Event{
			ID:       autoschedule.EventID(e.ID),
			Type:     e.EventType,
			Duration: e.DurationMinutes,
			Demand:   e.ExpectedAttendance,
			Tags:     []string(e.Tags),
		}
	}

	occupied := make([]autoschedule.Occupation, len(snapshot.Manual))
	for i, m := range snapshot.Manual {
		occupied[i] = autoschedule.Occupation{Venue: m.Venue, StartsAt: m.StartsAt.UTC(), EndsAt: m.EndsAt.UTC()}
	}

	conflicts := make([]autoschedule.VenueConflict, len(snapshot.Conflicts))
	for i, c := range snapshot.Conflicts {
		conflicts[i] = autoschedule.VenueConflict{Venue: c.Venue, Conflicting: c.ConflictingVenue}
	}

	speakers := make(map[autoschedule.EventID][]string)
	for _, link := range snapshot.Speakers {
		id := autoschedule.EventID(link.EventID)
		speakers[id] = append(speakers[id], link.SpeakerID)
	}

	availability := make(map[string][]autoschedule.Window)
	for _, speaker := range snapshot.DeclaredSpeakers {
		availability[speaker] = []autoschedule.Window{}
	}
	for _, w := range snapshot.Availability {
		availability[w.SpeakerID] = append(availability[w.SpeakerID], autoschedule.Window{StartsAt: w.StartsAt.UTC(), EndsAt: w.EndsAt.UTC()})
	}

	annotated, err := autoschedule.BuildUnavailability(autoschedule.BuildInput{
		Events:              events,
		Slots:               slots,
		Occupied:            occupied,
		VenueConflicts:      conflicts,
		Speakers:            speakers,
		SpeakerAvailability: availability,
	})
	if err != nil {
		return nil, nil, err
	}
	return annotated, slots, nil
}

// normalizeEventTypes trims, dedupes and sorts the requested event types.
func normalizeEventTypes(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func eventIDs(events []autoschedule.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = string(e.ID)
	}
	return ids
}

func slotRef(slot autoschedule.Slot) dto.SlotRef {
	return dto.SlotRef{
		Venue:     slot.Venue,
		StartsAt:  slot.StartsAt,
		EndsAt:    slot.EndsAt(),
		Duration:  slot.Duration,
		Session:   slot.Session,
		EventType: slot.EventType,
		Capacity:  slot.Capacity,
	}
}

func placementViews(schedule autoschedule.Schedule) []dto.PlacementView {
	sorted := schedule.Sorted()
	views := make([]dto.PlacementView, len(sorted))
	for i, p := range sorted {
		views[i] = dto.PlacementView{EventID: string(p.Event.ID), EventType: p.Event.Type, Slot: slotRef(p.Slot)}
	}
	return views
}

func slotChangeViews(changes []autoschedule.SlotChange) []dto.SlotChangeView {
	views := make([]dto.SlotChangeView, len(changes))
	for i, c := range changes {
		view := dto.SlotChangeView{Slot: slotRef(c.Slot), Stale: c.Stale}
		if c.Old != nil {
			id := string(c.Old.ID)
			view.OldEventID = &id
		}
		if c.New != nil {
			id := string(c.New.ID)
			view.NewEventID = &id
		}
		views[i] = view
	}
	return views
}

func eventChangeViews(changes []autoschedule.EventChange) []dto.EventChangeView {
	views := make([]dto.EventChangeView, len(changes))
	for i, c := range changes {
		view := dto.EventChangeView{EventID: string(c.Event.ID), Stale: c.Stale}
		if c.Old != nil {
			ref := slotRef(*c.Old)
			view.Old = &ref
		}
		if c.New != nil {
			ref := slotRef(*c.New)
			view.New = &ref
		}
		views[i] = view
	}
	return views
}

func deltaView(delta autoschedule.UniverseDelta) *dto.UniverseDeltaView {
	view := &dto.UniverseDeltaView{
		EventsCreated: make([]string, len(delta.EventsAdded)),
		EventsDeleted: make([]string, len(delta.EventsRemoved)),
		SlotsCreated:  len(delta.SlotsAdded),
		SlotsDeleted:  len(delta.SlotsRemoved),
	}
	for i, id := range delta.EventsAdded {
		view.EventsCreated[i] = string(id)
	}
	for i, id := range delta.EventsRemoved {
		view.EventsDeleted[i] = string(id)
	}
	return view
}

func recalculateMessage(delta *dto.UniverseDeltaView, unscheduled int) string {
	return fmt.Sprintf("%d events created, %d events deleted, %d slots created, %d slots deleted, %d events unscheduled",
		len(delta.EventsCreated), len(delta.EventsDeleted), delta.SlotsCreated, delta.SlotsDeleted, unscheduled)
}

func calculateMessage(scheduled, total int) string {
	return fmt.Sprintf("%d of %d events scheduled, %d events unscheduled", scheduled, total, total-scheduled)
}
