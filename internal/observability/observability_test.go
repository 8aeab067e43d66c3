package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"adopt-dashboard/internal/config"
)

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "region", "CA")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at warn level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "shown" || entry["region"] != "CA" {
		t.Errorf("entry = %v", entry)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "text"})

	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")
	RequestLogger(ctx, logger).Info("interaction")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "session_id=sess-1") {
		t.Errorf("log line missing ids: %q", out)
	}
}

func TestSpan(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "request")
	_, child := StartSpan(ctx, "render")

	if child.TraceID != parent.TraceID || child.ParentID != parent.SpanID {
		t.Errorf("child span not linked to parent: %+v", child)
	}

	var buf bytes.Buffer
	child.SetTag("changed", "compatibility_tally")
	child.SetError(errors.New("boom"))
	child.End(NewLoggerTo(&buf, config.LoggerConfig{Level: "debug", Format: "text"}))

	if child.Duration == nil || child.Status != SpanStatusError {
		t.Errorf("span not finished with error: %+v", child)
	}
	out := buf.String()
	if !strings.Contains(out, "changed=compatibility_tally") || !strings.Contains(out, "error=boom") {
		t.Errorf("span log = %q", out)
	}
}
