package handler

import (
	"net/http"
	"os"

	"github.com/arnavshah/walk-scheduler/internal/logging"
	"github.com/arnavshah/walk-scheduler/pkg/app"
	"github.com/arnavshah/walk-scheduler/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	r       http.Handler
	initErr error
)

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, "json")

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		initErr = err
		return
	}
	r = a.Router
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"service not configured","kind":"unavailable"}`))
		return
	}
	r.ServeHTTP(w, req)
}
