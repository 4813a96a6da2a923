package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/camp-autoscheduler/internal/models"
)

func newAutoScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var autoScheduleRowColumns = []string{"id", "camp_id", "version", "status", "objective", "event_types", "universe", "matrix", "meta", "applied_at", "created_by", "created_at", "updated_at"}

func TestAutoScheduleRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM autoschedules WHERE camp_id = $1")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO autoschedules")).
		WithArgs(sqlmock.AnyArg(), "camp-1", 3, string(models.AutoScheduleStatusDraft), "maximize_scheduled",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.AutoSchedule{
		CampID:    "camp-1",
		Objective: "maximize_scheduled",
		Matrix:    types.JSONText(`[[true]]`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, models.AutoScheduleStatusDraft, payload.Status)
	assert.Equal(t, types.JSONText(`[]`), payload.EventTypes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryCreateVersionedRequiresCamp(t *testing.T) {
	db, _, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	assert.Error(t, repo.CreateVersioned(context.Background(), nil, &models.AutoSchedule{}))
	assert.Error(t, repo.CreateVersioned(context.Background(), nil, nil))
}

func TestAutoScheduleRepositoryFindLatest(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(autoScheduleRowColumns).
		AddRow("as-2", "camp-1", 2, string(models.AutoScheduleStatusDraft), "minimize_changes", []byte(`["talk"]`), []byte(`{}`), []byte(`[]`), []byte(`{}`), nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM autoschedules WHERE camp_id = $1 ORDER BY version DESC LIMIT 1")).
		WithArgs("camp-1").
		WillReturnRows(rows)

	schedule, err := repo.FindLatest(context.Background(), "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "as-2", schedule.ID)
	assert.Equal(t, 2, schedule.Version)
	assert.False(t, schedule.IsApplied())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM autoschedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(autoScheduleRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryListByCamp(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(autoScheduleRowColumns).
		AddRow("as-2", "camp-1", 2, string(models.AutoScheduleStatusApplied), "minimize_changes", []byte(`[]`), []byte(`{}`), []byte(`[]`), []byte(`{}`), now, nil, now, now).
		AddRow("as-1", "camp-1", 1, string(models.AutoScheduleStatusDraft), "maximize_scheduled", []byte(`[]`), []byte(`{}`), []byte(`[]`), []byte(`{}`), nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM autoschedules WHERE camp_id = $1 ORDER BY version DESC")).
		WithArgs("camp-1").
		WillReturnRows(rows)

	list, err := repo.ListByCamp(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].IsApplied())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryUpdateMatrixSkipsApplied(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE autoschedules SET objective = $1, universe = $2, matrix = $3, meta = $4, updated_at = $5 WHERE id = $6 AND applied_at IS NULL")).
		WithArgs("minimize_changes", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "as-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMatrix(context.Background(), nil, &models.AutoSchedule{ID: "as-1", Objective: "minimize_changes"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryMarkApplied(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	appliedAt := time.Date(2026, time.July, 18, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE autoschedules SET status = $1, applied_at = $2, updated_at = $2 WHERE id = $3 AND applied_at IS NULL")).
		WithArgs(string(models.AutoScheduleStatusApplied), appliedAt, "as-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkApplied(context.Background(), nil, "as-1", appliedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoScheduleRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newAutoScheduleRepoMock(t)
	defer cleanup()
	repo := NewAutoScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM autoschedules WHERE id = $1 AND applied_at IS NULL")).
		WithArgs("as-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "as-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
