package models

import "time"

// TeacherAssignment links a teacher to a class academic year and subject.
type TeacherAssignment struct {
	ID                  string    `db:"id" json:"id"`
	TeacherID           string    `db:"teacher_id" json:"teacher_id"`
	ClassAcademicYearID string    `db:"class_academic_year_id" json:"class_academic_year_id"`
	SubjectID           string    `db:"subject_id" json:"subject_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
