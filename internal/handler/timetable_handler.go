package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableSolver interface {
	Solve(ctx context.Context, req dto.SolveTimetableRequest) (*dto.SolveTimetableResponse, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.SolveTimetableResponse, error)
}

// TimetableHandler exposes synchronous solving.
type TimetableHandler struct {
	service timetableSolver
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableSolver) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Solve godoc
// @Summary Solve a timetable from an inline payload
// @Description Places every assignment onto a (day, slot) pair without double-booking teachers or overfilling classes. Assignments that cannot be placed are returned in unscheduled.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SolveTimetableRequest true "Solve payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /timetables/solve [post]
func (h *TimetableHandler) Solve(c *gin.Context) {
	var req dto.SolveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}
	result, err := h.service.Solve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, solveMeta(result))
}

// Generate godoc
// @Summary Solve the stored assignments of class academic years
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, solveMeta(result))
}

func solveMeta(result *dto.SolveTimetableResponse) map[string]interface{} {
	return map[string]interface{}{
		"complete": len(result.Unscheduled) == 0 && result.Success,
		"timedOut": result.TimedOut,
	}
}
