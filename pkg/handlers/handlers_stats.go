package handlers

import (
	"net/http"

	"github.com/arnavshah/walk-scheduler/pkg/leaderboard"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/gin-gonic/gin"
)

// Stats summarises walk totals and fairness for all time and the week at ?start=
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	start := h.startParam(c)

	window, err := h.Leaderboard.NextWindow(ctx, start)
	if err != nil {
		h.fail(c, err)
		return
	}
	allTime, err := h.Leaderboard.AllTime(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		Start:          start,
		TotalWalks:     leaderboard.Total(allTime),
		Participants:   len(allTime),
		AllTimeFair:    leaderboard.Fairness(allTime),
		WindowWalks:    leaderboard.Total(window),
		WindowWalkers:  len(window),
		WindowFairness: leaderboard.Fairness(window),
	})
}
