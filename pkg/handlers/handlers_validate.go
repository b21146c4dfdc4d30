package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks a booking without writing it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.BookingInput
	if !h.bind(c, &input) {
		return
	}

	if err := h.Bookings.Validate(input); err != nil {
		var vErr *models.ValidationError
		if !errors.As(err, &vErr) {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"kind":   models.ErrorKind(err),
			"fields": vErr.FieldErrors,
		})
		return
	}

	// shape is fine; report whether the slot is still free
	_, taken, err := h.Slots.Get(c.Request.Context(), input.Date, input.Time)
	if err != nil {
		h.fail(c, err)
		return
	}
	onGrid := calendar.OnGrid(input.Time)
	if taken {
		c.JSON(http.StatusOK, gin.H{
			"valid":     false,
			"available": false,
			"on_grid":   onGrid,
			"kind":      models.ErrorKind(models.ErrSlotTaken),
			"error":     models.ErrSlotTaken.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"available": true,
		"on_grid":   onGrid,
	})
}
