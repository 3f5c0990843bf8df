package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleSlotRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("slot-1", "Period 1", "07:00", "07:45", now, now).
		AddRow("slot-2", "Period 2", "07:45", "08:30", now, now)
	mock.ExpectQuery("SELECT id, name, to_char\\(start_time, 'HH24:MI'\\) AS start_time .* FROM schedule_slots ORDER BY").
		WillReturnRows(rows)

	slots, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "07:45", slots[1].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleSlotRepositoryListError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	mock.ExpectQuery("FROM schedule_slots").WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list schedule slots")
}

func TestScheduleSlotRepositoryFindExisting(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewScheduleSlotRepository(db)

	mock.ExpectQuery("SELECT id FROM schedule_slots WHERE id = ANY\\(\\$1\\)").
		WithArgs(pq.Array([]string{"slot-1", "slot-9"})).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))

	found, err := repo.FindExisting(context.Background(), []string{"slot-1", "slot-9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"slot-1"}, found)

	empty, err := repo.FindExisting(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
