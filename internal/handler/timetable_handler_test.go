package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableSolverMock struct {
	solveReq    dto.SolveTimetableRequest
	generateReq dto.GenerateTimetableRequest
	resp        *dto.SolveTimetableResponse
	err         error
}

func (m *timetableSolverMock) Solve(ctx context.Context, req dto.SolveTimetableRequest) (*dto.SolveTimetableResponse, error) {
	m.solveReq = req
	return m.resp, m.err
}

func (m *timetableSolverMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.SolveTimetableResponse, error) {
	m.generateReq = req
	return m.resp, m.err
}

func postJSON(path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func sampleSolveResponse() *dto.SolveTimetableResponse {
	resp := dto.NewSolveTimetableResponse(solver.SolveResult{
		Success: true,
		Entries: []solver.TimetableEntry{{
			ClassAcademicYearID: "c1",
			SubjectID:           "math",
			TeacherID:           "t1",
			ScheduleSlotID:      "s1",
			DayName:             solver.Monday,
			PeriodOrder:         420,
		}},
	}, []solver.Day{solver.Monday})
	return &resp
}

func TestTimetableHandlerSolve(t *testing.T) {
	mockSvc := &timetableSolverMock{resp: sampleSolveResponse()}
	handler := &TimetableHandler{service: mockSvc}
	payload := []byte(`{
		"assignments":[{"teacherId":"t1","classAcademicYearId":"c1","subjectId":"math"}],
		"slots":[{"id":"s1","name":"P1","start_time":"07:00","end_time":"07:45"}],
		"options":{"days":["monday"],"timeLimitMs":500}
	}`)
	c, w := postJSON("/timetables/solve", payload)

	handler.Solve(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.solveReq.Assignments, 1)
	require.Equal(t, "07:00", mockSvc.solveReq.Slots[0].StartTime)
	require.NotNil(t, mockSvc.solveReq.Options.TimeLimitMs)
	require.Equal(t, 500, *mockSvc.solveReq.Options.TimeLimitMs)

	var body struct {
		Data struct {
			Success bool `json:"success"`
			Entries []struct {
				DayName     string `json:"day_name"`
				PeriodOrder int    `json:"period_order"`
			} `json:"entries"`
			Unscheduled []interface{}    `json:"unscheduled"`
			Summary     dto.SolveSummary `json:"summary"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Data.Success)
	require.Equal(t, "monday", body.Data.Entries[0].DayName)
	require.Equal(t, 420, body.Data.Entries[0].PeriodOrder)
	require.NotNil(t, body.Data.Unscheduled)
	require.Equal(t, 1, body.Data.Summary.Placed)
	require.Equal(t, true, body.Meta["complete"])
}

func TestTimetableHandlerSolveMalformedJSON(t *testing.T) {
	mockSvc := &timetableSolverMock{}
	handler := &TimetableHandler{service: mockSvc}
	c, w := postJSON("/timetables/solve", []byte(`{"assignments":`))

	handler.Solve(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
}

func TestTimetableHandlerSolvePropagatesServiceError(t *testing.T) {
	mockSvc := &timetableSolverMock{err: appErrors.Clone(appErrors.ErrPayloadTooLarge, "too many assignments")}
	handler := &TimetableHandler{service: mockSvc}
	c, w := postJSON("/timetables/solve", []byte(`{"assignments":[]}`))

	handler.Solve(c)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimetableHandlerGenerate(t *testing.T) {
	incomplete := dto.NewSolveTimetableResponse(solver.SolveResult{
		Success:     true,
		Unscheduled: []solver.Assignment{{TeacherID: "t1", ClassAcademicYearID: "c1", SubjectID: "math"}},
	}, []solver.Day{solver.AllYear})
	mockSvc := &timetableSolverMock{resp: &incomplete}
	handler := &TimetableHandler{service: mockSvc}
	c, w := postJSON("/timetables/generate", []byte(`{"classAcademicYearIds":["c1","c2"],"options":{"allYear":true}}`))

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"c1", "c2"}, mockSvc.generateReq.ClassAcademicYearIDs)
	require.True(t, mockSvc.generateReq.Options.AllYear)
	require.Contains(t, w.Body.String(), `"complete":false`)
}
