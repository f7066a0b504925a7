package logger

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "dev"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewAcceptsMixedCaseLevel(t *testing.T) {
	logger, err := New("WARN", "test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("debug must be disabled at warn level")
	}
}
