package utils

import (
	"testing"
	"time"
)

func TestDayWindowFollowsLocalCalendar(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:50 March 15 UTC is already March 16 in Seoul.
	ts := time.Date(2024, time.March, 15, 23, 50, 0, 0, time.UTC)
	start, end := DayWindow(ts, seoul)

	wantStart := time.Date(2024, time.March, 16, 0, 0, 0, 0, seoul)
	if !start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Fatalf("end = %v", end)
	}
	if !ts.Before(end) || ts.Before(start) {
		t.Fatal("timestamp must fall inside its own window")
	}
}

func TestMonthWindowSpansWholeMonth(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	start, end := MonthWindow(2024, time.February, la)
	if start.Day() != 1 || start.Month() != time.February {
		t.Fatalf("start = %v", start)
	}
	// Leap year: window ends at March 1, covering February 29.
	if end.Month() != time.March || end.Day() != 1 {
		t.Fatalf("end = %v", end)
	}
	feb29 := time.Date(2024, time.February, 29, 12, 0, 0, 0, la)
	if feb29.Before(start) || !feb29.Before(end) {
		t.Fatal("leap day must be inside the window")
	}

	// December rolls into January of the next year.
	_, decEnd := MonthWindow(2024, time.December, la)
	if decEnd.Year() != 2025 || decEnd.Month() != time.January {
		t.Fatalf("december end = %v", decEnd)
	}
}

func TestDateKeyUsesLocalDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	ts := time.Date(2024, time.March, 15, 23, 50, 0, 0, time.UTC)
	if got := DateKey(ts, seoul); got != "2024-03-16" {
		t.Fatalf("seoul key = %s", got)
	}
	if got := DateKey(ts, time.UTC); got != "2024-03-15" {
		t.Fatalf("utc key = %s", got)
	}
}
