package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/quizchat/internal/config"
)

func TestInitCreatesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "quizchat.log")

	logger, closer, err := Init(config.LogConfig{File: logPath, Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer closer.Close()

	logger.Info("hello", slog.String("component", "test"))
	logger.Debug("hidden")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("expected JSON log line, got: %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug line written at info level: %s", data)
	}
}

func TestInitTextFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quizchat.log")

	logger, closer, err := Init(config.LogConfig{File: logPath, Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer closer.Close()

	logger.Debug("turn", slog.Int("chunks", 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), "msg=turn") || !strings.Contains(string(data), "chunks=3") {
		t.Errorf("expected text log line, got: %s", data)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDefaultPathUsesStateHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	want := filepath.Join(dir, "quizchat", "quizchat.log")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
