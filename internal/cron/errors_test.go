package cron

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidScheduleError(t *testing.T) {
	err := &InvalidScheduleError{Schedule: "bad", Message: "expected 5 fields"}

	want := "cron: invalid schedule 'bad': expected 5 fields"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("register: %w", err)
	if !errors.Is(wrapped, ErrInvalidSchedule) {
		t.Error("errors.Is(wrapped, ErrInvalidSchedule) = false, want true")
	}
	if errors.Is(errors.New("other"), ErrInvalidSchedule) {
		t.Error("plain error should not match ErrInvalidSchedule")
	}
}
