package handlers

import (
	"time"

	"github.com/arnavshah/walk-scheduler/pkg/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine shared by the server binary and the serverless entry point.
func NewRouter(cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(h.Logger), gin.Recovery(), cors.New(corsConfig(cfg.CORSOrigins)))

	limiter := NewRateLimiter(cfg.RatePerMinute)

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.GET("/times", h.Times)

		api.GET("/slots", h.GetWeek)
		api.GET("/slots/:date/:time", h.GetSlot)
		api.POST("/slots", limiter.Limit(), h.BookSlot)
		api.DELETE("/slots/:date/:time", limiter.Limit(), h.CancelSlot)
		api.POST("/validate", h.ValidateInput)

		api.GET("/participants", h.ListParticipants)
		api.POST("/participants", limiter.Limit(), h.UpsertParticipant)
		api.GET("/participants/:name/color", h.ParticipantColor)

		api.GET("/leaderboard", h.AllTimeLeaderboard)
		api.GET("/leaderboard/week", h.WeekLeaderboard)
		api.GET("/stats", h.Stats)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
