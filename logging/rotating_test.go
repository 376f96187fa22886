package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), "2026-W43"},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}
	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.expected {
			t.Errorf("weekKey(%v) = %s, want %s", tt.date, got, tt.expected)
		}
	}
}

func TestRotatingLoggerSizeRotation(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, "desk", 4, 64)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rl.Write(line); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	week := weekKey(time.Now())
	for _, name := range []string{
		fmt.Sprintf("desk-%s.log", week),
		fmt.Sprintf("desk-%s_01.log", week),
		fmt.Sprintf("desk-%s_02.log", week),
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
		if info.Size() != int64(len(line)) {
			t.Errorf("%s has %d bytes, want %d", name, info.Size(), len(line))
		}
	}
}

func TestRotatingLoggerReopensFullFile(t *testing.T) {
	dir := t.TempDir()
	week := weekKey(time.Now())
	base := filepath.Join(dir, fmt.Sprintf("desk-%s.log", week))
	if err := os.WriteFile(base, []byte(strings.Repeat("x", 100)), 0644); err != nil {
		t.Fatal(err)
	}

	rl := NewRotatingLogger(dir, "desk", 4, 64)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	if got := filepath.Base(rl.file.Name()); got != fmt.Sprintf("desk-%s_01.log", week) {
		t.Errorf("expected continuation file, got %s", got)
	}
}

func TestRotatingLoggerCleanup(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, "desk", 1, 0)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rl.Close()

	old := filepath.Join(dir, "desk-2020-W01.log")
	recent := filepath.Join(dir, "desk-2020-W02.log")
	foreign := filepath.Join(dir, "other-2020-W01.log")
	for _, p := range []string{old, recent, foreign} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-30 * 24 * time.Hour)
	_ = os.Chtimes(old, past, past)
	_ = os.Chtimes(foreign, past, past)

	deleted, err := rl.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted file, got %d", deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old log file should be removed")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent log file should be kept")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("files with another prefix should be kept")
	}
}
