package autoschedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
)

var campDay = time.Date(2026, time.July, 18, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return campDay.Add(time.Duration(minutes) * time.Minute)
}

func TestGenerateSlotsTilesSession(t *testing.T) {
	session := Session{ID: "sat-stage", EventType: "talk", Venue: "stage", Capacity: 200, StartsAt: at(0), EndsAt: at(125)}

	slots, err := GenerateSlots(session, 30)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	for k, slot := range slots {
		assert.Equal(t, at(30*k), slot.StartsAt)
		assert.Equal(t, 30, slot.Duration)
		assert.Equal(t, "stage", slot.Venue)
		assert.Equal(t, "sat-stage", slot.Session)
		assert.Equal(t, "talk", slot.EventType)
		assert.Equal(t, 200, slot.Capacity)
	}
}

func TestGenerateSlotsUsesSessionSlotLength(t *testing.T) {
	session := Session{ID: "ws", EventType: "workshop", Venue: "tent", StartsAt: at(0), EndsAt: at(180), SlotLength: 90}

	slots, err := GenerateSlots(session, 30)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 90, slots[0].Duration)
	assert.Equal(t, at(90), slots[1].StartsAt)
}

func TestGenerateSlotsShortSessionYieldsNothing(t *testing.T) {
	slots, err := GenerateSlots(Session{ID: "short", Venue: "stage", StartsAt: at(0), EndsAt: at(20)}, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlotsRejectsBadInput(t *testing.T) {
	_, err := GenerateSlots(Session{ID: "s", StartsAt: at(0), EndsAt: at(60)}, 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = GenerateSlots(Session{ID: "s", StartsAt: at(60), EndsAt: at(0)}, 30)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateAllSlotsRejectsDuplicateKeys(t *testing.T) {
	sessions := []Session{
		{ID: "a", Venue: "stage", StartsAt: at(0), EndsAt: at(60)},
		{ID: "b", Venue: "stage", StartsAt: at(30), EndsAt: at(90)},
	}
	_, err := GenerateAllSlots(sessions, 30)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateAllSlotsIsDeterministic(t *testing.T) {
	sessions := []Session{
		{ID: "a", Venue: "stage", StartsAt: at(0), EndsAt: at(60)},
		{ID: "b", Venue: "tent", StartsAt: at(0), EndsAt: at(60)},
	}
	first, err := GenerateAllSlots(sessions, 30)
	require.NoError(t, err)
	second, err := GenerateAllSlots(sessions, 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestSlotOverlapAndContainment(t *testing.T) {
	a := Slot{Venue: "stage", StartsAt: at(0), Duration: 60}
	b := Slot{Venue: "tent", StartsAt: at(30), Duration: 30}
	c := Slot{Venue: "tent", StartsAt: at(60), Duration: 30}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.True(t, b.ContainedIn(at(0), at(60)))
	assert.False(t, c.ContainedIn(at(0), at(60)))
	assert.Equal(t, "stage@2026-07-18T10:00:00Z", a.Key().String())
}
