package autoschedule

import (
	"fmt"
	"time"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// SlotKey is the identity of a slot: one venue at one start time.
type SlotKey struct {
	Venue    string `json:"venue"`
	StartsAt int64  `json:"startsAt"` // unix seconds
}

// String renders the key as venue@RFC3339.
func (k SlotKey) String() string {
	return fmt.Sprintf("%s@%s", k.Venue, time.Unix(k.StartsAt, 0).UTC().Format(time.RFC3339))
}

// SlotSet is a set of slot keys.
type SlotSet map[SlotKey]struct{}

// Add inserts key into the set.
func (s SlotSet) Add(key SlotKey) {
	s[key] = struct{}{}
}

// Has reports whether key is in the set.
func (s SlotSet) Has(key SlotKey) bool {
	_, ok := s[key]
	return ok
}

// Slot is a placement opportunity in a venue.
type Slot struct {
	Venue     string
	StartsAt  time.Time
	Duration  int // minutes
	Session   string
	EventType string
	Capacity  int
}

// Key returns the slot identity.
func (s Slot) Key() SlotKey {
	return SlotKey{Venue: s.Venue, StartsAt: s.StartsAt.Unix()}
}

// EndsAt returns the exclusive end of the slot.
func (s Slot) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.Duration) * time.Minute)
}

// Overlaps reports whether the two slots share any instant, regardless of venue.
func (s Slot) Overlaps(other Slot) bool {
	return s.StartsAt.Before(other.EndsAt()) && other.StartsAt.Before(s.EndsAt())
}

// OverlapsRange reports whether the slot shares any instant with [start, end).
func (s Slot) OverlapsRange(start, end time.Time) bool {
	return s.StartsAt.Before(end) && start.Before(s.EndsAt())
}

// ContainedIn reports whether the slot lies fully within [start, end].
func (s Slot) ContainedIn(start, end time.Time) bool {
	return !s.StartsAt.Before(start) && !s.EndsAt().After(end)
}

func (s Slot) sameAttributes(other Slot) bool {
	return s.Duration == other.Duration && s.Session == other.Session && s.EventType == other.EventType
}

// Session is a block of time in one venue reserved for one event type.
type Session struct {
	ID        string
	EventType string
	Venue     string
	Capacity  int
	StartsAt  time.Time
	EndsAt    time.Time
	// SlotLength overrides the global tick for this session when positive.
	SlotLength int
}

// GenerateSlots tiles the session into consecutive slots of tick minutes.
// A trailing remainder shorter than one tick is dropped.
func GenerateSlots(session Session, tick int) ([]Slot, error) {
	if session.SlotLength > 0 {
		tick = session.SlotLength
	}
	if tick <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %s: slot length must be > 0", session.ID))
	}
	if session.EndsAt.Before(session.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %s ends before it starts", session.ID))
	}
	if session.Capacity < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %s: capacity must be >= 0", session.ID))
	}

	length := int(session.EndsAt.Sub(session.StartsAt) / time.Minute)
	count := length / tick
	slots := make([]Slot, 0, count)
	step := time.Duration(tick) * time.Minute
	for k := 0; k < count; k++ {
		slots = append(slots, Slot{
			Venue:     session.Venue,
			StartsAt:  session.StartsAt.Add(time.Duration(k) * step),
			Duration:  tick,
			Session:   session.ID,
			EventType: session.EventType,
			Capacity:  session.Capacity,
		})
	}
	return slots, nil
}

// GenerateAllSlots generates slots for every session in order and rejects
// two sessions producing the same venue and start time.
func GenerateAllSlots(sessions []Session, tick int) ([]Slot, error) {
	var all []Slot
	seen := make(SlotSet)
	for _, session := range sessions {
		slots, err := GenerateSlots(session, tick)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			if seen.Has(slot.Key()) {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot %s generated by session %s", slot.Key(), session.ID))
			}
			seen.Add(slot.Key())
			all = append(all, slot)
		}
	}
	return all, nil
}
