package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nathoo/talecraft/internal/config"
)

func TestSetup_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
	l.Info("card added", "card", "date")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["card"] != "date" {
		t.Errorf("card attr = %v", rec["card"])
	}
}

func TestSetup_LevelAndText(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
	l.Info("hidden")
	WithError(l, errors.New("boom")).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "error=boom") {
		t.Errorf("unexpected text output: %q", out)
	}
	if slog.Default() != l {
		t.Error("Setup should install the default logger")
	}
}
