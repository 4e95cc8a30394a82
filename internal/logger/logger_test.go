package logger

import "testing"

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("expected debug level to be enabled")
	}

	if _, err := New("loud", "json"); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("expected error for bad format")
	}
}
