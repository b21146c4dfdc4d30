package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/walk-scheduler/pkg/config"
	"github.com/gin-gonic/gin"
)

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		DataPath:      filepath.Join(t.TempDir(), "walks.db"),
		NotifyChannel: "walk-events",
		CORSOrigins:   []string{"*"},
	}

	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()

	if a.Redis != nil {
		t.Error("Expected no Redis client without REDIS_URL")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/slots", strings.NewReader(`{"date":"2025-04-20","time":"1200","name":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOpenRedis(t *testing.T) {
	rdb, err := OpenRedis("")
	if err != nil || rdb != nil {
		t.Errorf("Expected nil client for empty url, got %v, %v", rdb, err)
	}

	if _, err := OpenRedis("http://localhost:6379"); err == nil {
		t.Error("Expected an invalid scheme to fail")
	}

	rdb, err = OpenRedis("redis://localhost:6379/2")
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	defer rdb.Close()
	if rdb.Options().DB != 2 {
		t.Errorf("Expected db 2, got %d", rdb.Options().DB)
	}
}
