package autoschedule

import (
	"fmt"
	"sort"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

// Placement puts one event into one slot.
type Placement struct {
	Event Event
	Slot  Slot
}

// Schedule is a possibly partial set of placements.
type Schedule []Placement

// SlotOf returns the slot hosting the event, if any.
func (s Schedule) SlotOf(id EventID) (Slot, bool) {
	for _, p := range s {
		if p.Event.ID == id {
			return p.Slot, true
		}
	}
	return Slot{}, false
}

// EventIn returns the event placed in the slot, if any.
func (s Schedule) EventIn(key SlotKey) (Event, bool) {
	for _, p := range s {
		if p.Slot.Key() == key {
			return p.Event, true
		}
	}
	return Event{}, false
}

// Sorted returns a copy ordered by slot start, venue and event id.
func (s Schedule) Sorted() Schedule {
	out := append(Schedule(nil), s...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Slot.StartsAt.Equal(b.Slot.StartsAt) {
			return a.Slot.StartsAt.Before(b.Slot.StartsAt)
		}
		if a.Slot.Venue != b.Slot.Venue {
			return a.Slot.Venue < b.Slot.Venue
		}
		return a.Event.ID < b.Event.ID
	})
	return out
}

// Validate rejects malformed scheduling input.
func Validate(events []Event, slots []Slot) error {
	seenEvents := make(EventSet, len(events))
	for _, event := range events {
		if event.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "event id is required")
		}
		if seenEvents.Has(event.ID) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate event %s", event.ID))
		}
		seenEvents.Add(event.ID)
		if event.Duration <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s: duration must be > 0", event.ID))
		}
		if event.Demand < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s: demand must be >= 0", event.ID))
		}
	}

	maxCapacity := -1
	seenSlots := make(SlotSet, len(slots))
	for _, slot := range slots {
		if seenSlots.Has(slot.Key()) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot %s", slot.Key()))
		}
		seenSlots.Add(slot.Key())
		if slot.Duration <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s: duration must be > 0", slot.Key()))
		}
		if slot.Capacity < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s: capacity must be >= 0", slot.Key()))
		}
		if slot.Capacity > maxCapacity {
			maxCapacity = slot.Capacity
		}
	}

	if len(slots) == 0 {
		return nil
	}
	for _, event := range events {
		if event.Demand > maxCapacity {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s: demand %d exceeds every slot capacity", event.ID, event.Demand))
		}
	}
	return nil
}

// CheckSchedule verifies every hard constraint of a schedule over the given
// universe. Events and slots are resolved by identity so that annotations
// (unavailability) come from the universe rather than the placements.
func CheckSchedule(schedule Schedule, events []Event, slots []Slot) error {
	eventsByID := make(map[EventID]Event, len(events))
	for _, event := range events {
		eventsByID[event.ID] = event
	}
	slotsByKey := make(map[SlotKey]Slot, len(slots))
	for _, slot := range slots {
		slotsByKey[slot.Key()] = slot
	}

	usedEvents := make(EventSet, len(schedule))
	usedSlots := make(SlotSet, len(schedule))
	resolved := make([]Placement, 0, len(schedule))
	for _, p := range schedule {
		event, ok := eventsByID[p.Event.ID]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s is not part of this run", p.Event.ID))
		}
		slot, ok := slotsByKey[p.Slot.Key()]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s is not part of this run", p.Slot.Key()))
		}
		if usedEvents.Has(event.ID) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s placed more than once", event.ID))
		}
		if usedSlots.Has(slot.Key()) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %s hosts more than one event", slot.Key()))
		}
		if !event.CanUse(slot) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("event %s cannot use slot %s", event.ID, slot.Key()))
		}
		usedEvents.Add(event.ID)
		usedSlots.Add(slot.Key())
		resolved = append(resolved, Placement{Event: event, Slot: slot})
	}

	for i := range resolved {
		for j := i + 1; j < len(resolved); j++ {
			a, b := resolved[i], resolved[j]
			if !a.Slot.Overlaps(b.Slot) {
				continue
			}
			if a.Slot.Venue == b.Slot.Venue {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("events %s and %s overlap in venue %s", a.Event.ID, b.Event.ID, a.Slot.Venue))
			}
			if a.Event.ConflictsWith(b.Event) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("conflicting events %s and %s overlap in time", a.Event.ID, b.Event.ID))
			}
		}
	}
	return nil
}
