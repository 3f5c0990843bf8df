package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherPreference stores the slots a teacher can never be scheduled into.
type TeacherPreference struct {
	ID             string         `db:"id" json:"id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	BlockedSlotIDs pq.StringArray `db:"blocked_slot_ids" json:"blocked_slot_ids"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
