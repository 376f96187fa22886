package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultPrefix      = "desk"
	defaultMaxFileSize = 100 * 1024 * 1024
)

// RotatingLogger writes to one file per ISO week, opening a numbered
// continuation file when the size cap is reached, and removes files older
// than the retention period.
type RotatingLogger struct {
	dir         string
	prefix      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	file        *os.File
	week        string
	size        atomic.Int64
	numbered    *regexp.Regexp
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingLogger creates a rotating logger writing <prefix>-<week>.log files in dir.
func NewRotatingLogger(dir, prefix string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if maxFileSize < 0 {
		maxFileSize = defaultMaxFileSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RotatingLogger{
		dir:         dir,
		prefix:      prefix,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		numbered:    regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-\d{4}-W\d{2}_(\d{2})\.log$`),
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Open creates the log directory, opens the current file and starts the
// daily cleanup loop.
func (rl *RotatingLogger) Open() error {
	if err := os.MkdirAll(rl.dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rl.mu.Lock()
	err := rl.rotate(weekKey(time.Now()))
	rl.mu.Unlock()
	if err != nil {
		return err
	}

	go func() {
		defer close(rl.cleanupDone)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-rl.ctx.Done():
				return
			case <-ticker.C:
				if _, err := rl.Cleanup(); err != nil {
					slog.Warn("Failed to clean up old log files", "error", err)
				}
			}
		}
	}()
	return nil
}

// rotate switches to the right file for week (caller holds mu)
func (rl *RotatingLogger) rotate(week string) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.file = nil
	}

	name := rl.pickFile(week)
	path := filepath.Join(rl.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rl.file = f
	rl.week = week
	rl.size.Store(size)
	return nil
}

// pickFile returns the first file of week that still has room.
func (rl *RotatingLogger) pickFile(week string) string {
	base := fmt.Sprintf("%s-%s.log", rl.prefix, week)
	if !rl.full(filepath.Join(rl.dir, base)) {
		return base
	}

	matches, _ := filepath.Glob(filepath.Join(rl.dir, fmt.Sprintf("%s-%s_??.log", rl.prefix, week)))
	highest := 0
	for _, m := range matches {
		sub := rl.numbered.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n > highest {
			highest = n
		}
	}

	if highest > 0 {
		last := fmt.Sprintf("%s-%s_%02d.log", rl.prefix, week, highest)
		if !rl.full(filepath.Join(rl.dir, last)) {
			return last
		}
	}
	return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, week, highest+1)
}

func (rl *RotatingLogger) full(path string) bool {
	if rl.maxFileSize == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() >= rl.maxFileSize
}

// Write implements io.Writer.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(time.Now())
	switch {
	case rl.file == nil || week != rl.week:
		if err := rl.rotate(week); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.size.Load() > 0 && rl.size.Load()+int64(len(p)) > rl.maxFileSize:
		if err := rl.continueWeek(); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size.Add(int64(n))
	return n, err
}

// continueWeek moves to the next numbered file of the current week.
func (rl *RotatingLogger) continueWeek() error {
	next := rl.nextNumbered(rl.week, filepath.Base(rl.file.Name()))
	if err := rl.file.Close(); err != nil {
		slog.Warn("Failed to close log file during rotation", "error", err)
	}
	rl.file = nil

	f, err := os.OpenFile(filepath.Join(rl.dir, next), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", next, err)
	}
	rl.file = f
	rl.size.Store(0)
	return nil
}

func (rl *RotatingLogger) nextNumbered(week, current string) string {
	n := 0
	if sub := rl.numbered.FindStringSubmatch(current); len(sub) == 2 {
		n, _ = strconv.Atoi(sub[1])
	}
	return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, week, n+1)
}

// Cleanup removes log files older than the retention period and returns how
// many were deleted.
func (rl *RotatingLogger) Cleanup() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	rl.mu.Lock()
	current := ""
	if rl.file != nil {
		current = filepath.Base(rl.file.Name())
	}
	rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, rl.prefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if name == current {
			continue
		}
		if err := os.Remove(filepath.Join(rl.dir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Close stops the cleanup loop and closes the current file.
func (rl *RotatingLogger) Close() error {
	rl.cancel()

	select {
	case <-rl.cleanupDone:
	case <-time.After(time.Second):
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}
