package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	New("loader").Info("loaded", "rows", 3)

	out := buf.String()
	if !strings.Contains(out, "component=loader") || !strings.Contains(out, "rows=3") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "JSON", &buf)

	New("analysis").Info("done")

	out := buf.String()
	if !strings.Contains(out, `"component":"analysis"`) || !strings.Contains(out, `"level":"INFO"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	Init(ParseLevel("warn"), "text", &buf)

	New("gate").Info("hidden")
	New("gate").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be suppressed at warn: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn should pass: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
