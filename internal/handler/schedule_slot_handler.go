package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleSlotLister interface {
	List(ctx context.Context) ([]models.ScheduleSlot, error)
	Refresh(ctx context.Context) ([]models.ScheduleSlot, error)
}

// ScheduleSlotHandler exposes the slot catalogue.
type ScheduleSlotHandler struct {
	service scheduleSlotLister
}

// NewScheduleSlotHandler constructs the handler.
func NewScheduleSlotHandler(svc scheduleSlotLister) *ScheduleSlotHandler {
	return &ScheduleSlotHandler{service: svc}
}

// List godoc
// @Summary List schedule slots
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule-slots [get]
func (h *ScheduleSlotHandler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{"total": len(slots)})
}

// Refresh godoc
// @Summary Reload the schedule slot catalogue from the database
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule-slots/refresh [post]
func (h *ScheduleSlotHandler) Refresh(c *gin.Context) {
	slots, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{"total": len(slots)})
}
