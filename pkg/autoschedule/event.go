// Package autoschedule places camp program events into venue time slots.
//
// The package is a pure computation over in-memory snapshots: callers build
// Events and Slots from their own storage, annotate them with
// BuildUnavailability, hand them to a Solver and compare results with
// SlotDiff and EventDiff. Nothing in here performs I/O.
package autoschedule

import "sort"

// EventID identifies an event across scheduling runs.
type EventID string

// EventSet is a set of event identifiers.
type EventSet map[EventID]struct{}

// Add inserts id into the set.
func (s EventSet) Add(id EventID) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s EventSet) Has(id EventID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in ascending order.
func (s EventSet) Sorted() []EventID {
	ids := make([]EventID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Event is something that needs a slot: a talk, a workshop, a lightning round.
type Event struct {
	ID       EventID
	Type     string
	Duration int // minutes
	Tags     []string
	Demand   int // expected attendance

	UnavailableSlots  SlotSet
	UnavailableEvents EventSet
}

// CanUse reports whether the event may be placed in slot, ignoring other placements.
func (e Event) CanUse(slot Slot) bool {
	if e.UnavailableSlots.Has(slot.Key()) {
		return false
	}
	if e.Demand > slot.Capacity {
		return false
	}
	return e.Duration <= slot.Duration
}

// ConflictsWith reports whether e and other must not overlap in time.
func (e Event) ConflictsWith(other Event) bool {
	return e.UnavailableEvents.Has(other.ID) || other.UnavailableEvents.Has(e.ID)
}

// sameKind reports whether other can stand for e in a diff. Demand and
// duration change with routine edits and do not make an event a different one.
func (e Event) sameKind(other Event) bool {
	return e.Type == other.Type
}

func (e Event) clone() Event {
	out := e
	out.Tags = append([]string(nil), e.Tags...)
	out.UnavailableSlots = make(SlotSet, len(e.UnavailableSlots))
	for key := range e.UnavailableSlots {
		out.UnavailableSlots.Add(key)
	}
	out.UnavailableEvents = make(EventSet, len(e.UnavailableEvents))
	for id := range e.UnavailableEvents {
		out.UnavailableEvents.Add(id)
	}
	return out
}
