package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "text")
	reqLogger := base.With("request_id", "abc")

	ctx := ContextWithLogger(context.Background(), reqLogger)
	FromContext(ctx, base).Info("hello")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("Expected context logger to be used, got %q", buf.String())
	}
}

func TestFromContext_Fallbacks(t *testing.T) {
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContext(context.Background(), base) != base {
		t.Error("Expected base logger when context carries none")
	}
	if FromContext(context.Background(), nil) != slog.Default() {
		t.Error("Expected slog.Default when nothing else is available")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "json").Debug("walk", "name", "Alice")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("Expected JSON output, got %q", buf.String())
	}
}
