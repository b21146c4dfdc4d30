package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arnavshah/walk-scheduler/internal/calendar"
	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/booking"
	"github.com/arnavshah/walk-scheduler/pkg/database"
	"github.com/arnavshah/walk-scheduler/pkg/leaderboard"
	"github.com/arnavshah/walk-scheduler/pkg/models"
	"github.com/arnavshah/walk-scheduler/pkg/participants"
	"github.com/arnavshah/walk-scheduler/pkg/slots"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Bookings     *booking.Service
	Slots        *slots.Store
	Participants *participants.Registry
	Leaderboard  *leaderboard.Aggregator
	DB           *gorm.DB
	Redis        *redis.Client // nil when events go to the log
	Logger       *slog.Logger
	Now          func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log(c *gin.Context) *slog.Logger {
	return logging.FromContext(c.Request.Context(), h.Logger)
}

// fail writes the error body for err. Every body carries a stable kind.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := models.ErrorKind(err)

	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "kind": kind, "fields": vErr.FieldErrors})
	case errors.Is(err, models.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": models.ErrSlotTaken.Error(), "kind": kind})
	case errors.Is(err, models.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrSlotNotFound.Error(), "kind": kind})
	case errors.Is(err, models.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the person who booked this slot can cancel it", "kind": kind})
	case errors.Is(err, models.ErrUnavailable):
		h.log(c).Error("request failed", "error_kind", kind, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again", "kind": kind})
	default:
		h.log(c).Error("request failed", "error_kind", kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": kind})
	}
}

// bind decodes a JSON body into dst. An empty body leaves dst untouched so
// field validation can report what is missing.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body", "kind": "validation"})
		return false
	}
	return true
}

// Index reports the service banner
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Walk Scheduler API",
		"version": "1.0.0",
	})
}

// Health pings the database and, when configured, Redis
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true
	if err := database.Ping(ctx, h.DB); err != nil {
		h.log(c).Warn("database health check failed", "error", err)
		checks["database"] = "unavailable"
		healthy = false
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			h.log(c).Warn("redis health check failed", "error", err)
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// Times returns the bookable half-hour grid
func (h *Handler) Times(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"times": calendar.Grid()})
}

// startParam reads ?start=, defaulting to today
func (h *Handler) startParam(c *gin.Context) string {
	if start := c.Query("start"); start != "" {
		return start
	}
	return calendar.Today(h.now())
}

// GetWeek returns the seven day schedule beginning at ?start=
func (h *Handler) GetWeek(c *gin.Context) {
	week, err := h.Slots.Week(c.Request.Context(), h.startParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

// GetSlot returns the booking at one date and time
func (h *Handler) GetSlot(c *gin.Context) {
	date, hhmm := c.Param("date"), c.Param("time")
	vErr := &models.ValidationError{}
	if !calendar.IsDate(date) {
		vErr.Add("date", "must be a calendar date in YYYY-MM-DD form")
	}
	if !calendar.IsTime(hhmm) {
		vErr.Add("time", "must be four digits in HHMM form")
	}
	if vErr.HasErrors() {
		h.fail(c, vErr)
		return
	}

	slot, ok, err := h.Slots.Get(c.Request.Context(), date, hhmm)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, models.ErrSlotNotFound)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// BookSlot books a walk
func (h *Handler) BookSlot(c *gin.Context) {
	var input models.BookingInput
	if !h.bind(c, &input) {
		return
	}

	slot, err := h.Bookings.Book(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// CancelSlot frees a walk. The body names who is cancelling.
func (h *Handler) CancelSlot(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if !h.bind(c, &body) {
		return
	}

	input := models.CancelInput{Date: c.Param("date"), Time: c.Param("time"), Name: body.Name}
	if err := h.Bookings.Cancel(c.Request.Context(), input); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListParticipants lists participants, filtered by ?q= when present
func (h *Handler) ListParticipants(c *gin.Context) {
	list, err := h.Participants.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpsertParticipant registers a participant or updates their contact
func (h *Handler) UpsertParticipant(c *gin.Context) {
	var input models.ParticipantInput
	if !h.bind(c, &input) {
		return
	}

	p, err := h.Participants.Upsert(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ParticipantColor returns the color index of a name, registering it on first use
func (h *Handler) ParticipantColor(c *gin.Context) {
	name := c.Param("name")
	color, err := h.Participants.ColorIndex(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "colorIndex": color})
}

// AllTimeLeaderboard ranks walkers over the whole history
func (h *Handler) AllTimeLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboard.AllTime(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// WeekLeaderboard ranks walkers over the seven days beginning at ?start=
func (h *Handler) WeekLeaderboard(c *gin.Context) {
	entries, err := h.Leaderboard.NextWindow(c.Request.Context(), h.startParam(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
