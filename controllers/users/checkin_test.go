package users

import (
	"testing"
	"time"
)

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 6, 1, 0, 5, 0, 0, time.UTC)
	b := time.Date(2025, 6, 1, 23, 55, 0, 0, time.UTC)
	if !sameDay(a, b) {
		t.Fatal("same calendar day not detected")
	}
	c := time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)
	if sameDay(a, c) {
		t.Fatal("different days treated as same")
	}
}

func TestIsYesterday(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !isYesterday(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC), now) {
		t.Fatal("previous calendar day not detected")
	}
	if isYesterday(time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC), now) {
		t.Fatal("two days ago treated as yesterday")
	}
	if isYesterday(now, now) {
		t.Fatal("same day treated as yesterday")
	}
}
