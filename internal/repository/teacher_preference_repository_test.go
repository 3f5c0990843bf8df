package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTeacherPreferenceRepositoryGetAndUpsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherPreferenceRepository(db)

	created := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO teacher_preferences").
		WithArgs(sqlmock.AnyArg(), "teacher-1", pq.StringArray{"slot-1", "slot-2"}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("pref-1", created, updated))

	pref := &models.TeacherPreference{TeacherID: "teacher-1", BlockedSlotIDs: pq.StringArray{"slot-1", "slot-2"}}
	require.NoError(t, repo.Upsert(context.Background(), pref))
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, created, pref.CreatedAt)
	assert.Equal(t, updated, pref.UpdatedAt)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "blocked_slot_ids", "created_at", "updated_at"}).
		AddRow("pref-1", "teacher-1", "{slot-1,slot-2}", created, updated)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, blocked_slot_ids, created_at, updated_at FROM teacher_preferences WHERE teacher_id = $1")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	got, err := repo.GetByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"slot-1", "slot-2"}, []string(got.BlockedSlotIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherPreferenceRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherPreferenceRepository(db)

	mock.ExpectQuery("FROM teacher_preferences WHERE teacher_id").
		WithArgs("teacher-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTeacher(context.Background(), "teacher-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTeacherPreferenceRepositoryListByTeachers(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherPreferenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "blocked_slot_ids", "created_at", "updated_at"}).
		AddRow("pref-1", "teacher-1", "{}", now, now).
		AddRow("pref-2", "teacher-2", "{slot-3}", now, now)
	mock.ExpectQuery("WHERE teacher_id = ANY\\(\\$1\\)").
		WithArgs(pq.Array([]string{"teacher-1", "teacher-2"})).
		WillReturnRows(rows)

	prefs, err := repo.ListByTeachers(context.Background(), []string{"teacher-1", "teacher-2"})
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Empty(t, prefs[0].BlockedSlotIDs)
	assert.Equal(t, []string{"slot-3"}, []string(prefs[1].BlockedSlotIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}
