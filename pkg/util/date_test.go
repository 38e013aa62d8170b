package util

import (
	"testing"
	"time"
)

func TestDayKeyUTC(t *testing.T) {
	// 2024-10-10 23:59:59.999 UTC stays on the 10th
	ms := time.Date(2024, 10, 10, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
	if got := DayKey(ms); got != "2024-10-10" {
		t.Fatalf("unexpected day key %s", got)
	}
	// one millisecond later rolls over to the 11th
	if got := DayKey(ms + 1); got != "2024-10-11" {
		t.Fatalf("unexpected day key %s", got)
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(45, 1, 30); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := ClampInt(-3, 1, 30); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := ClampInt(7, 1, 30); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}
