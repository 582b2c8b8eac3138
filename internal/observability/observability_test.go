package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"retail-analytics/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	logger.Debug("hidden")
	logger.Info("shown", "rows", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "shown" {
		t.Errorf("expected msg 'shown', got %v", entry["msg"])
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q, want abc", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestStartSpan_Nested(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /health")
	_, child := StartSpan(ctx, "dataset.load")

	if child.TraceID != parent.TraceID {
		t.Errorf("child trace %q != parent trace %q", child.TraceID, parent.TraceID)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child parent %q != %q", child.ParentID, parent.SpanID)
	}
}

func TestSpan_LogValue(t *testing.T) {
	_, span := StartSpan(context.Background(), "report.hourly_sales_trend")
	span.SetTag("rows", "12")
	span.SetError(errors.New("boom"))
	span.Finish()

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("span finished", "span", span)

	out := buf.String()
	for _, want := range []string{`"operation":"report.hourly_sales_trend"`, `"status":"ERROR"`, `"error":"boom"`, `"rows":"12"`, `"duration":`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestSpan_FinishFreezesDuration(t *testing.T) {
	_, span := StartSpan(context.Background(), "dataset.load")
	span.Finish()
	first := span.Duration()

	time.Sleep(5 * time.Millisecond)
	span.Finish()

	if got := span.Duration(); got != first {
		t.Errorf("Duration() = %v after second Finish, want %v", got, first)
	}
	if len(span.TraceID) != 16 || len(span.SpanID) != 16 {
		t.Errorf("ids = %q/%q, want 16 hex chars", span.TraceID, span.SpanID)
	}
}
