package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_SubmissionFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerWithWriter(&buf, "debug")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	l.WithSubmission("sub-1", "report.csv").Info("upload started", map[string]any{"bytes": 10})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["message"] != "upload started" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["submission_id"] != "sub-1" {
		t.Errorf("submission_id = %v", entry["submission_id"])
	}
	if entry["file"] != "report.csv" {
		t.Errorf("file = %v", entry["file"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields missing: %v", entry)
	}
	if fields["bytes"] != float64(10) {
		t.Errorf("fields.bytes = %v", fields["bytes"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerWithWriter(&buf, "warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	l.Debug("dropped", nil)
	l.Info("dropped", nil)
	l.Warn("kept", nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "kept" {
		t.Errorf("expected only warn entry, got %v", lines)
	}
}

func TestLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLoggerWithWriter(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestLogger_NilSafe(_ *testing.T) {
	var l *Logger
	l.Info("nothing", nil)
	l.With(map[string]any{"k": "v"}).Error("nothing", nil)
	l.Sugar().Infof("nothing %d", 1)
	_ = l.Sync()
}
