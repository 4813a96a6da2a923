package autoschedule

import (
	"sort"
)

// SlotChange describes a slot whose occupant differs between two schedules.
// Stale is set when the slot identity exists on both sides with different
// attributes; Old and New are then both nil because the two sides are not
// comparable. Events are matched by id, so an occupant whose demand or
// duration changed still counts as the same occupant; a changed event type
// is stale.
type SlotChange struct {
	Slot  Slot
	Old   *Event
	New   *Event
	Stale bool
}

// EventChange describes an event whose slot differs between two schedules.
// Events are resolved by id; Stale is set when the event type changed or the
// event stayed on a slot identity whose attributes changed.
type EventChange struct {
	Event Event
	Old   *Slot
	New   *Slot
	Stale bool
}

// SlotDiff compares the occupant of every slot present in either schedule,
// ordered by slot start then venue.
func SlotDiff(old, new Schedule) []SlotChange {
	type side struct {
		slot  Slot
		event Event
	}
	before := make(map[SlotKey]side, len(old))
	for _, p := range old {
		before[p.Slot.Key()] = side{slot: p.Slot, event: p.Event}
	}
	after := make(map[SlotKey]side, len(new))
	for _, p := range new {
		after[p.Slot.Key()] = side{slot: p.Slot, event: p.Event}
	}

	var changes []SlotChange
	for key, a := range before {
		b, ok := after[key]
		if !ok {
			ev := a.event
			changes = append(changes, SlotChange{Slot: a.slot, Old: &ev})
			continue
		}
		if !a.slot.sameAttributes(b.slot) || (a.event.ID == b.event.ID && !a.event.sameKind(b.event)) {
			changes = append(changes, SlotChange{Slot: b.slot, Stale: true})
			continue
		}
		if a.event.ID != b.event.ID {
			oldEv, newEv := a.event, b.event
			changes = append(changes, SlotChange{Slot: b.slot, Old: &oldEv, New: &newEv})
		}
	}
	for key, b := range after {
		if _, ok := before[key]; ok {
			continue
		}
		ev := b.event
		changes = append(changes, SlotChange{Slot: b.slot, New: &ev})
	}

	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i].Slot, changes[j].Slot
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		return a.Venue < b.Venue
	})
	return changes
}

// EventDiff compares the slot of every event present in either schedule,
// ordered by event id.
func EventDiff(old, new Schedule) []EventChange {
	before := make(map[EventID]Placement, len(old))
	for _, p := range old {
		before[p.Event.ID] = p
	}
	after := make(map[EventID]Placement, len(new))
	for _, p := range new {
		after[p.Event.ID] = p
	}

	var changes []EventChange
	for id, a := range before {
		b, ok := after[id]
		if !ok {
			slot := a.Slot
			changes = append(changes, EventChange{Event: a.Event, Old: &slot})
			continue
		}
		if !a.Event.sameKind(b.Event) || (a.Slot.Key() == b.Slot.Key() && !a.Slot.sameAttributes(b.Slot)) {
			changes = append(changes, EventChange{Event: b.Event, Stale: true})
			continue
		}
		if a.Slot.Key() != b.Slot.Key() {
			oldSlot, newSlot := a.Slot, b.Slot
			changes = append(changes, EventChange{Event: b.Event, Old: &oldSlot, New: &newSlot})
		}
	}
	for id, b := range after {
		if _, ok := before[id]; ok {
			continue
		}
		slot := b.Slot
		changes = append(changes, EventChange{Event: b.Event, New: &slot})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Event.ID < changes[j].Event.ID
	})
	return changes
}

// ApplyEventDiff replays event changes on top of old. Stale entries carry no
// usable information and are skipped.
func ApplyEventDiff(old Schedule, changes []EventChange) Schedule {
	byEvent := make(map[EventID]Placement, len(old))
	order := make([]EventID, 0, len(old))
	for _, p := range old {
		byEvent[p.Event.ID] = p
		order = append(order, p.Event.ID)
	}
	for _, c := range changes {
		if c.Stale {
			continue
		}
		if c.New == nil {
			delete(byEvent, c.Event.ID)
			continue
		}
		if _, ok := byEvent[c.Event.ID]; !ok {
			order = append(order, c.Event.ID)
		}
		byEvent[c.Event.ID] = Placement{Event: c.Event, Slot: *c.New}
	}

	out := make(Schedule, 0, len(byEvent))
	for _, id := range order {
		if p, ok := byEvent[id]; ok {
			out = append(out, p)
			delete(byEvent, id)
		}
	}
	return out
}
