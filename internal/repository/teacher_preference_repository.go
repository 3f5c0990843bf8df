package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherPreferenceRepository persists teacher preferences.
type TeacherPreferenceRepository struct {
	db *sqlx.DB
}

// NewTeacherPreferenceRepository constructs the repository.
func NewTeacherPreferenceRepository(db *sqlx.DB) *TeacherPreferenceRepository {
	return &TeacherPreferenceRepository{db: db}
}

// GetByTeacher returns stored preferences for a teacher.
func (r *TeacherPreferenceRepository) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	const query = `SELECT id, teacher_id, blocked_slot_ids, created_at, updated_at FROM teacher_preferences WHERE teacher_id = $1`
	var pref models.TeacherPreference
	if err := r.db.GetContext(ctx, &pref, query, teacherID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListByTeachers returns preferences of the given teachers. Teachers without a row are omitted.
func (r *TeacherPreferenceRepository) ListByTeachers(ctx context.Context, teacherIDs []string) ([]models.TeacherPreference, error) {
	if len(teacherIDs) == 0 {
		return []models.TeacherPreference{}, nil
	}
	const query = `SELECT id, teacher_id, blocked_slot_ids, created_at, updated_at FROM teacher_preferences WHERE teacher_id = ANY($1) ORDER BY teacher_id ASC`
	var prefs []models.TeacherPreference
	if err := r.db.SelectContext(ctx, &prefs, query, pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("list teacher preferences: %w", err)
	}
	return prefs, nil
}

// Upsert creates or replaces the blocked slots of a teacher. The stored id and timestamps are
// written back into pref.
func (r *TeacherPreferenceRepository) Upsert(ctx context.Context, pref *models.TeacherPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pref.BlockedSlotIDs == nil {
		pref.BlockedSlotIDs = pq.StringArray{}
	}

	const query = `INSERT INTO teacher_preferences (id, teacher_id, blocked_slot_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (teacher_id) DO UPDATE
		SET blocked_slot_ids = EXCLUDED.blocked_slot_ids,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, pref.ID, pref.TeacherID, pref.BlockedSlotIDs, now)
	if err := row.Scan(&pref.ID, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
		return fmt.Errorf("upsert teacher preference: %w", err)
	}
	return nil
}
