package autoschedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

func TestBuildUnavailabilityManualPlacements(t *testing.T) {
	slots := []Slot{
		{Venue: "stage", StartsAt: at(0), Duration: 30, EventType: "talk", Capacity: 100},
		{Venue: "stage", StartsAt: at(30), Duration: 30, EventType: "talk", Capacity: 100},
		{Venue: "tent", StartsAt: at(60), Duration: 30, EventType: "talk", Capacity: 100},
		{Venue: "tent", StartsAt: at(90), Duration: 30, EventType: "talk", Capacity: 100},
	}
	events := []Event{
		{ID: "e1", Type: "talk", Duration: 30},
		{ID: "e2", Type: "talk", Duration: 30},
	}

	annotated, err := BuildUnavailability(BuildInput{
		Events: events,
		Slots:  slots,
		Occupied: []Occupation{
			{Venue: "stage", StartsAt: at(10), EndsAt: at(20)},
			{Venue: "bar", StartsAt: at(90), EndsAt: at(120)},
		},
		VenueConflicts: []VenueConflict{{Venue: "bar", Conflicting: "tent"}},
	})
	require.NoError(t, err)

	for _, event := range annotated {
		assert.True(t, event.UnavailableSlots.Has(slots[0].Key()), "occupied venue")
		assert.False(t, event.UnavailableSlots.Has(slots[1].Key()))
		assert.False(t, event.UnavailableSlots.Has(slots[2].Key()))
		assert.True(t, event.UnavailableSlots.Has(slots[3].Key()), "conflicting venue")
	}
	assert.Nil(t, events[0].UnavailableSlots, "input must not be mutated")
}

func TestBuildUnavailabilityCrossTypeExclusivity(t *testing.T) {
	talkSlot := Slot{Venue: "stage", StartsAt: at(0), Duration: 60, EventType: "talk", Capacity: 50}
	workshopSlot := Slot{Venue: "stage", StartsAt: at(60), Duration: 60, EventType: "workshop", Capacity: 50}

	annotated, err := BuildUnavailability(BuildInput{
		Events: []Event{
			{ID: "talk", Type: "talk", Duration: 60},
			{ID: "workshop", Type: "workshop", Duration: 60},
		},
		Slots: []Slot{talkSlot, workshopSlot},
	})
	require.NoError(t, err)

	assert.True(t, annotated[0].UnavailableSlots.Has(workshopSlot.Key()))
	assert.False(t, annotated[0].UnavailableSlots.Has(talkSlot.Key()))
	assert.True(t, annotated[1].UnavailableSlots.Has(talkSlot.Key()))
	assert.False(t, annotated[1].UnavailableSlots.Has(workshopSlot.Key()))
}

func TestBuildUnavailabilitySingleTypeAddsNothing(t *testing.T) {
	annotated, err := BuildUnavailability(BuildInput{
		Events: []Event{{ID: "a", Type: "talk", Duration: 30}},
		Slots:  []Slot{{Venue: "stage", StartsAt: at(0), Duration: 30, EventType: "talk"}},
	})
	require.NoError(t, err)
	assert.Empty(t, annotated[0].UnavailableSlots)
	assert.Empty(t, annotated[0].UnavailableEvents)
}

func TestBuildUnavailabilitySpeakerConflictsAreSymmetric(t *testing.T) {
	annotated, err := BuildUnavailability(BuildInput{
		Events: []Event{
			{ID: "a", Type: "talk", Duration: 30},
			{ID: "b", Type: "talk", Duration: 30},
			{ID: "c", Type: "talk", Duration: 30},
		},
		Slots: []Slot{{Venue: "stage", StartsAt: at(0), Duration: 30, EventType: "talk"}},
		Speakers: map[EventID][]string{
			"a": {"alice"},
			"b": {"alice", "bob"},
			"c": {"carol"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []EventID{"b"}, annotated[0].UnavailableEvents.Sorted())
	assert.Equal(t, []EventID{"a"}, annotated[1].UnavailableEvents.Sorted())
	assert.Empty(t, annotated[2].UnavailableEvents)
}

func TestBuildUnavailabilitySpeakerWindows(t *testing.T) {
	slots := []Slot{
		{Venue: "stage", StartsAt: at(0), Duration: 30, EventType: "talk"},
		{Venue: "stage", StartsAt: at(30), Duration: 30, EventType: "talk"},
		{Venue: "stage", StartsAt: at(60), Duration: 30, EventType: "talk"},
	}
	annotated, err := BuildUnavailability(BuildInput{
		Events: []Event{
			{ID: "declared", Type: "talk", Duration: 30},
			{ID: "undeclared", Type: "talk", Duration: 30},
			{ID: "never", Type: "talk", Duration: 30},
		},
		Slots: slots,
		Speakers: map[EventID][]string{
			"declared":   {"alice"},
			"undeclared": {"bob"},
			"never":      {"carol"},
		},
		SpeakerAvailability: map[string][]Window{
			"alice": {{StartsAt: at(25), EndsAt: at(60)}},
			"carol": {},
		},
	})
	require.NoError(t, err)

	assert.True(t, annotated[0].UnavailableSlots.Has(slots[0].Key()), "starts before the window")
	assert.False(t, annotated[0].UnavailableSlots.Has(slots[1].Key()))
	assert.True(t, annotated[0].UnavailableSlots.Has(slots[2].Key()))
	assert.Empty(t, annotated[1].UnavailableSlots)
	assert.Len(t, annotated[2].UnavailableSlots, 3)
}

func TestBuildUnavailabilityRejectsMalformedInput(t *testing.T) {
	_, err := BuildUnavailability(BuildInput{
		Events: []Event{{ID: "a", Duration: 0}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = BuildUnavailability(BuildInput{
		Events: []Event{{ID: "a", Duration: 30, Demand: 500}},
		Slots:  []Slot{{Venue: "stage", StartsAt: at(0), Duration: 30, Capacity: 100}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
