package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// captureLogger returns a Logger writing JSON records into buf.
func captureLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h)
}

func TestModuleAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo).Module("hashring")

	l.Info("snapshot created", "servers", 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["module"] != "hashring" {
		t.Fatalf("want module=hashring, got %v", record["module"])
	}
	if record["msg"] != "snapshot created" {
		t.Fatalf("want msg=snapshot created, got %v", record["msg"])
	}
	if record["servers"] != float64(3) {
		t.Fatalf("want servers=3, got %v", record["servers"])
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelInfo).With("election", "jobs", "participant", "p1")

	l.Warn("lease renewal failed")

	out := buf.String()
	for _, want := range []string{`"election":"jobs"`, `"participant":"p1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %s: %s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := captureLogger(&buf, slog.LevelWarn)

	l.Debug("dropped")
	l.Info("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("below-level records should be dropped: %s", buf.String())
	}

	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("warn record should be written")
	}
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(captureLogger(&buf, slog.LevelInfo))

	Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatalf("default logger not replaced: %s", buf.String())
	}

	// nil is ignored.
	SetDefault(nil)
	if Default() == nil {
		t.Fatal("SetDefault(nil) must keep the previous logger")
	}
}
