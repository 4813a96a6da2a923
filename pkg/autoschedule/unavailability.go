package autoschedule

import (
	"time"
)

// Occupation is a manually placed program item that already holds a venue.
type Occupation struct {
	Venue    string
	StartsAt time.Time
	EndsAt   time.Time
}

// VenueConflict marks two venues that cannot be used at the same time.
type VenueConflict struct {
	Venue       string
	Conflicting string
}

// Window is a span of time a speaker declared as available.
type Window struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// BuildInput is the snapshot the unavailability builder works from.
type BuildInput struct {
	Events         []Event
	Slots          []Slot
	Occupied       []Occupation
	VenueConflicts []VenueConflict
	// Speakers lists the speaker ids of each event.
	Speakers map[EventID][]string
	// SpeakerAvailability holds declared windows per speaker. A speaker
	// missing from the map is always available; a speaker mapped to an
	// empty list is never available.
	SpeakerAvailability map[string][]Window
}

// BuildUnavailability returns copies of the input events annotated with the
// slots and events each of them cannot share. The input is left untouched.
func BuildUnavailability(in BuildInput) ([]Event, error) {
	if err := Validate(in.Events, in.Slots); err != nil {
		return nil, err
	}

	events := make([]Event, len(in.Events))
	for i, event := range in.Events {
		events[i] = event.clone()
	}

	shared := occupiedSlots(in.Slots, in.Occupied, in.VenueConflicts)
	crossTypeUnavailability(events, in.Slots)

	for i := range events {
		for key := range shared {
			events[i].UnavailableSlots.Add(key)
		}
	}

	speakerConflicts(events, in.Speakers)
	speakerWindows(events, in.Slots, in.Speakers, in.SpeakerAvailability)

	return events, nil
}

// occupiedSlots collects slots clashing with a manual occupation in their own
// venue or in a venue conflicting with it.
func occupiedSlots(slots []Slot, occupied []Occupation, conflicts []VenueConflict) SlotSet {
	related := make(map[string]map[string]struct{})
	link := func(a, b string) {
		if related[a] == nil {
			related[a] = make(map[string]struct{})
		}
		related[a][b] = struct{}{}
	}
	for _, c := range conflicts {
		link(c.Venue, c.Conflicting)
		link(c.Conflicting, c.Venue)
	}

	shared := make(SlotSet)
	for _, slot := range slots {
		for _, occ := range occupied {
			if !slot.OverlapsRange(occ.StartsAt, occ.EndsAt) {
				continue
			}
			if occ.Venue == slot.Venue {
				shared.Add(slot.Key())
				break
			}
			if _, ok := related[slot.Venue][occ.Venue]; ok {
				shared.Add(slot.Key())
				break
			}
		}
	}
	return shared
}

func crossTypeUnavailability(events []Event, slots []Slot) {
	types := make(map[string]struct{})
	for _, event := range events {
		types[event.Type] = struct{}{}
	}
	for _, slot := range slots {
		types[slot.EventType] = struct{}{}
	}
	if len(types) <= 1 {
		return
	}
	for i := range events {
		for _, slot := range slots {
			if slot.EventType != events[i].Type {
				events[i].UnavailableSlots.Add(slot.Key())
			}
		}
	}
}

func speakerConflicts(events []Event, speakers map[EventID][]string) {
	bySpeaker := make(map[string][]int)
	for i, event := range events {
		for _, speaker := range speakers[event.ID] {
			bySpeaker[speaker] = append(bySpeaker[speaker], i)
		}
	}
	for _, idx := range bySpeaker {
		for _, a := range idx {
			for _, b := range idx {
				if a == b {
					continue
				}
				events[a].UnavailableEvents.Add(events[b].ID)
			}
		}
	}
}

func speakerWindows(events []Event, slots []Slot, speakers map[EventID][]string, availability map[string][]Window) {
	cache := make(map[string]SlotSet)
	for i := range events {
		for _, speaker := range speakers[events[i].ID] {
			windows, declared := availability[speaker]
			if !declared {
				continue
			}
			blocked, ok := cache[speaker]
			if !ok {
				blocked = slotsOutside(slots, windows)
				cache[speaker] = blocked
			}
			for key := range blocked {
				events[i].UnavailableSlots.Add(key)
			}
		}
	}
}

func slotsOutside(slots []Slot, windows []Window) SlotSet {
	out := make(SlotSet)
	for _, slot := range slots {
		inside := false
		for _, w := range windows {
			if slot.ContainedIn(w.StartsAt, w.EndsAt) {
				inside = true
				break
			}
		}
		if !inside {
			out.Add(slot.Key())
		}
	}
	return out
}
