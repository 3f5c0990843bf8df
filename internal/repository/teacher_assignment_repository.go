package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherAssignmentRepository reads teaching assignments.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// ListByClassAcademicYears returns assignments for the given classes. Unknown ids match nothing.
func (r *TeacherAssignmentRepository) ListByClassAcademicYears(ctx context.Context, classIDs []string) ([]models.TeacherAssignment, error) {
	if len(classIDs) == 0 {
		return []models.TeacherAssignment{}, nil
	}
	const query = `SELECT id, teacher_id, class_academic_year_id, subject_id, created_at
		FROM teacher_assignments
		WHERE class_academic_year_id = ANY($1)
		ORDER BY class_academic_year_id ASC, teacher_id ASC, created_at ASC, id ASC`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}
