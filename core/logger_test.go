//go:build unix

package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// TestDefaultLogger_Levels verifies records below the minimum level are dropped
// Given: A logger writing to a buffer at warn level
// When: One record per level is logged
// Then: Only the warn and error records appear, with fields rendered
func TestDefaultLogger_Levels(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewDefaultLoggerTo(&buf, LevelWarn)

	// Act
	logger.Debug("debug record")
	logger.Info("info record")
	logger.Warn("thread library error", F("op", "block"), F("tid", 7))
	logger.Error("system error", F("op", "reset timer"))

	// Assert
	out := buf.String()
	if strings.Contains(out, "debug record") || strings.Contains(out, "info record") {
		t.Errorf("output contains filtered records:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] thread library error {op: block, tid: 7}") {
		t.Errorf("missing warn record:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] system error {op: reset timer}") {
		t.Errorf("missing error record:\n%s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Errorf("ParseLogLevel(loud) = nil error")
	}
}

func TestErrorMessages(t *testing.T) {
	uerr := &UsageError{Op: "block", ID: 3, Err: ErrNoSuchThread}
	if got := uerr.Error(); got != "thread library error: block 3: no thread with this id" {
		t.Errorf("UsageError = %q", got)
	}
	if !errors.Is(uerr, ErrNoSuchThread) {
		t.Errorf("errors.Is(UsageError, ErrNoSuchThread) = false")
	}
	if got := (&UsageError{Op: "spawn", ID: -1, Err: ErrTooManyThreads}).Error(); got != "thread library error: spawn: thread limit reached" {
		t.Errorf("UsageError without id = %q", got)
	}
	serr := &SystemError{Op: "reset timer", Err: errors.New("boom")}
	if got := serr.Error(); got != "system error: reset timer: boom" {
		t.Errorf("SystemError = %q", got)
	}
}
