package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	tmpDir := t.TempDir()

	l, err := Acquire(tmpDir, "main")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	h, err := ReadHolder(tmpDir)
	if err != nil {
		t.Fatalf("ReadHolder() error = %v", err)
	}
	if h.PID != os.Getpid() {
		t.Errorf("holder PID = %d, want %d", h.PID, os.Getpid())
	}
	if h.Session != "main" {
		t.Errorf("holder session = %q, want main", h.Session)
	}
	if h.Started.IsZero() {
		t.Error("holder start time not recorded")
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, FileName)); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed after Release, stat err = %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	tmpDir := t.TempDir()

	l1, err := Acquire(tmpDir, "main")
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(tmpDir, "main")
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}

	var lockErr *LockHeldError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockHeldError, got %T: %v", err, err)
	}
	if lockErr.Holder.PID != os.Getpid() {
		t.Errorf("LockHeldError PID = %d, want %d", lockErr.Holder.PID, os.Getpid())
	}
}

func TestIsHeld(t *testing.T) {
	tmpDir := t.TempDir()
	if IsHeld(tmpDir) {
		t.Error("IsHeld() on empty dir = true")
	}

	l, err := Acquire(tmpDir, "main")
	if err != nil {
		t.Fatal(err)
	}
	if !IsHeld(tmpDir) {
		t.Error("IsHeld() while locked = false")
	}
	_ = l.Release()
	if IsHeld(tmpDir) {
		t.Error("IsHeld() after release = true")
	}
}

func TestParseHolder(t *testing.T) {
	h := parseHolder("pid=42\nsession=work\nstarted=2026-01-02T03:04:05Z\njunk\n")
	if h.PID != 42 || h.Session != "work" {
		t.Errorf("parseHolder = %+v", h)
	}
	if h.Started.Year() != 2026 {
		t.Errorf("Started = %v, want year 2026", h.Started)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l, err := Acquire(t.TempDir(), "main")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
