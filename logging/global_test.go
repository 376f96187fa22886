package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/lighthospital/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConsoleAndFileLevels(t *testing.T) {
	tests := []struct {
		name        string
		env         config.Environment
		level       string
		verbose     bool
		wantConsole slog.Level
		wantFile    slog.Level
	}{
		{"dev debug", config.EnvDevelopment, "debug", false, slog.LevelDebug, slog.LevelDebug},
		{"prod info", config.EnvProduction, "info", false, slog.LevelWarn, slog.LevelInfo},
		{"prod debug", config.EnvProduction, "debug", false, slog.LevelWarn, slog.LevelInfo},
		{"prod verbose", config.EnvProduction, "info", true, slog.LevelDebug, slog.LevelInfo},
		{"prod error", config.EnvProduction, "error", false, slog.LevelError, slog.LevelError},
		{"staging debug", config.EnvStaging, "debug", false, slog.LevelDebug, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getConsoleLogLevel(tt.env, tt.level, tt.verbose); got != tt.wantConsole {
				t.Errorf("console level = %v, want %v", got, tt.wantConsole)
			}
			if got := getFileLogLevel(tt.env, tt.level); got != tt.wantFile {
				t.Errorf("file level = %v, want %v", got, tt.wantFile)
			}
		})
	}
}

func TestInitLoggerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	previous := DefaultLoggingService
	defer func() {
		_ = Close()
		DefaultLoggingService = previous
	}()

	InitLogger(Options{
		Dir:     dir,
		Prefix:  "test",
		Env:     config.EnvTest,
		Level:   "info",
		Console: &console,
	})

	Info("row committed", "row", "abc")
	Debug("hidden")

	if !strings.Contains(console.String(), "row committed") {
		t.Errorf("expected console output, got: %s", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Errorf("debug record should be filtered, got: %s", console.String())
	}

	matches, err := filepath.Glob(filepath.Join(dir, "test-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"row committed"`) || !strings.Contains(string(content), `"row":"abc"`) {
		t.Errorf("expected JSON record in file, got: %s", content)
	}
}

func TestFallbackBeforeInit(t *testing.T) {
	previous := DefaultLoggingService
	DefaultLoggingService = nil
	defer func() { DefaultLoggingService = previous }()

	// must not panic without an initialized logger
	Info("info")
	Warn("warn")
	Error("error")
	Debug("debug")

	if err := Close(); err != nil {
		t.Errorf("Close without logger returned %v", err)
	}
}
