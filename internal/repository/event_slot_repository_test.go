package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

func newEventSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEventSlotRepositoryDeleteAutoscheduled(t *testing.T) {
	db, mock, cleanup := newEventSlotRepoMock(t)
	defer cleanup()
	repo := NewEventSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_slots WHERE camp_id = $1 AND autoscheduled AND event_type = ANY($2)")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	removed, err := repo.DeleteAutoscheduled(context.Background(), nil, "camp-1", []string{"talk", "workshop"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventSlotRepositoryBulkCreateAutoscheduled(t *testing.T) {
	db, mock, cleanup := newEventSlotRepoMock(t)
	defer cleanup()
	repo := NewEventSlotRepository(db)

	start := time.Date(2026, time.July, 18, 10, 0, 0, 0, time.UTC)
	scheduleID := "as-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_slots")).
		WithArgs(sqlmock.AnyArg(), "camp-1", "ev-1", "talk", "stage", start, start.Add(30*time.Minute), true, scheduleID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_slots")).
		WithArgs(sqlmock.AnyArg(), "camp-1", "ev-2", "talk", "tent", start, start.Add(30*time.Minute), true, scheduleID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.EventSlot{
		{CampID: "camp-1", EventID: "ev-1", EventType: "talk", Venue: "stage", StartsAt: start, EndsAt: start.Add(30 * time.Minute), AutoScheduleID: &scheduleID},
		{CampID: "camp-1", EventID: "ev-2", EventType: "talk", Venue: "tent", StartsAt: start, EndsAt: start.Add(30 * time.Minute), AutoScheduleID: &scheduleID},
	}
	require.NoError(t, repo.BulkCreateAutoscheduled(context.Background(), nil, slots))
	for _, slot := range slots {
		assert.NotEmpty(t, slot.ID)
		assert.True(t, slot.Autoscheduled)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventSlotRepositoryBulkCreateEmpty(t *testing.T) {
	db, mock, cleanup := newEventSlotRepoMock(t)
	defer cleanup()
	repo := NewEventSlotRepository(db)

	require.NoError(t, repo.BulkCreateAutoscheduled(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
