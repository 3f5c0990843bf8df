package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/solver"
)

// RunStatus captures asynchronous solve lifecycle states.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Terminal reports whether the run will not change again.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// TimetableRunParams is what a worker needs to replay a generate request.
type TimetableRunParams struct {
	ClassAcademicYearIDs []string            `json:"classAcademicYearIds"`
	Options              solver.SolveOptions `json:"options"`
}

// TimetableRun is the Redis-held state of one asynchronous solve.
type TimetableRun struct {
	ID           string              `json:"id"`
	Status       RunStatus           `json:"status"`
	Params       TimetableRunParams  `json:"params"`
	Result       *solver.SolveResult `json:"result,omitempty"`
	Days         []solver.Day        `json:"days,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}
