package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTextHandler_WritesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(h)

	logger.Info("node executed", "node_id", "n1", "group_id", "g1")

	out := buf.String()
	if !strings.Contains(out, "node executed") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "node_id: n1") {
		t.Errorf("expected node_id attr in output, got %q", out)
	}
}

func TestTextHandler_ColorsWarnAndError(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(h)

	logger.Warn("degraded fallback selected")
	if !strings.Contains(buf.String(), "\033[93m") {
		t.Error("expected WARN lines to carry the yellow color escape")
	}

	buf.Reset()
	logger.Error("execution aborted")
	if !strings.Contains(buf.String(), "\033[91m") {
		t.Error("expected ERROR lines to carry the red color escape")
	}
}

func TestTextHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected Info to be disabled when the handler's level is Warn")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected Warn to be enabled when the handler's level is Warn")
	}
}

func TestTextHandler_WithAttrsCarriesForward(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf, nil)
	logger := slog.New(h).With("execution_id", "abc123")

	logger.Info("start")
	if !strings.Contains(buf.String(), "execution_id: abc123") {
		t.Errorf("expected attrs bound via With to appear in output, got %q", buf.String())
	}
}
