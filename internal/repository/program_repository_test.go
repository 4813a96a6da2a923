package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

func newProgramRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProgramRepositoryListEventsReadsTags(t *testing.T) {
	db, mock, cleanup := newProgramRepoMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	rows := sqlmock.NewRows([]string{"id", "camp_id", "title", "event_type", "duration_minutes", "expected_attendance", "tags"}).
		AddRow("ev-1", "camp-1", "Reverse engineering 101", "talk", 60, 120, []byte(`{security,hardware}`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM program_events WHERE camp_id = $1 AND event_type = ANY($2) AND autoschedule_enabled ORDER BY id")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	events, err := repo.ListEvents(context.Background(), "camp-1", []string{"talk"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"security", "hardware"}, []string(events[0].Tags))
	assert.Equal(t, 60, events[0].DurationMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositorySnapshot(t *testing.T) {
	db, mock, cleanup := newProgramRepoMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	start := time.Date(2026, time.July, 18, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM program_events")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "camp_id", "title", "event_type", "duration_minutes", "expected_attendance", "tags"}).
			AddRow("ev-1", "camp-1", "Talk", "talk", 30, 10, []byte(`{}`)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_sessions")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "camp_id", "event_type", "venue", "capacity", "starts_at", "ends_at", "slot_minutes"}).
			AddRow("sess-1", "camp-1", "talk", "stage", 200, start, start.Add(2*time.Hour), nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_slots WHERE camp_id = $1 AND (NOT autoscheduled OR NOT (event_type = ANY($2)))")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "camp_id", "event_id", "event_type", "venue", "starts_at", "ends_at", "autoscheduled", "autoschedule_id", "created_at"}).
			AddRow("slot-1", "camp-1", "opening", "keynote", "stage", start, start.Add(30*time.Minute), false, nil, start))
	mock.ExpectQuery(regexp.QuoteMeta("FROM venue_conflicts")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"venue", "conflicting_venue"}).AddRow("bar", "stage"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_speakers es JOIN program_events pe")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "speaker_id"}).AddRow("ev-1", "sp-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM speaker_availability")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"speaker_id", "starts_at", "ends_at"}).AddRow("sp-1", start, start.Add(time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM speakers WHERE camp_id = $1 AND availability_declared")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sp-1"))

	snapshot, err := repo.Snapshot(context.Background(), "camp-1", []string{"talk"})
	require.NoError(t, err)
	assert.Len(t, snapshot.Events, 1)
	require.Len(t, snapshot.Sessions, 1)
	assert.Nil(t, snapshot.Sessions[0].SlotMinutes)
	assert.Len(t, snapshot.Manual, 1)
	assert.Equal(t, []models.VenueConflict{{Venue: "bar", ConflictingVenue: "stage"}}, snapshot.Conflicts)
	assert.Len(t, snapshot.Speakers, 1)
	assert.Len(t, snapshot.Availability, 1)
	assert.Equal(t, []string{"sp-1"}, snapshot.DeclaredSpeakers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramRepositorySnapshotStopsOnError(t *testing.T) {
	db, mock, cleanup := newProgramRepoMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM program_events")).
		WithArgs("camp-1", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Snapshot(context.Background(), "camp-1", []string{"talk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list program events")
	assert.NoError(t, mock.ExpectationsWereMet())
}
