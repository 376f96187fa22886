// Package logging sets up the slog loggers shared by the search service and
// the prescription desk: text on the console, JSON in weekly rotating files.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/lighthospital/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLogger
type Options struct {
	Dir            string
	Prefix         string
	Env            config.Environment
	Level          string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64

	// Console receives the text output, os.Stdout when nil
	Console io.Writer
}

// InitLogger initializes the global logger instance
func InitLogger(opts Options) {
	DefaultLoggingService = newLoggingService(opts)
	slog.SetDefault(DefaultLoggingService.Logger)
}

func newLoggingService(opts Options) *LoggingService {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	if opts.RetentionWeeks <= 0 {
		opts.RetentionWeeks = 4
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: getConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	rotating := NewRotatingLogger(opts.Dir, opts.Prefix, opts.RetentionWeeks, opts.MaxFileSize)
	if err := rotating.Open(); err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize rotating logger", "error", err)
		return &LoggingService{Logger: logger}
	}

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: getFileLogLevel(opts.Env, opts.Level),
	})

	return &LoggingService{
		Logger:   slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}),
		rotating: rotating,
	}
}

// Close flushes and closes the log file of the global logger
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	return DefaultLoggingService.rotating.Close()
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, info when unknown
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getConsoleLogLevel keeps production consoles at warn and above unless
// verbose output is asked for.
func getConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	parsed := parseLogLevel(level)
	if env == config.EnvProduction && parsed < slog.LevelWarn {
		return slog.LevelWarn
	}
	return parsed
}

// getFileLogLevel never drops below info outside development so log files
// stay small.
func getFileLogLevel(env config.Environment, level string) slog.Level {
	parsed := parseLogLevel(level)
	if env != config.EnvDevelopment && parsed < slog.LevelInfo {
		return slog.LevelInfo
	}
	return parsed
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelInfo).Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelError).Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelWarn).Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelDebug).Debug(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}

// fallback is a console logger used before InitLogger has run
func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Logger returns the global logger, or slog's default before InitLogger has run
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}
