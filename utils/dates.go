package utils

import "time"

// DayWindow returns [start, end) of the calendar day containing t in loc.
// Diary day queries always go through here so a meal logged at 23:50 local
// never shows up under the next UTC day.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthWindow returns [start, end) of the given month in loc, month 1-based.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DateKey formats t as the YYYY-MM-DD key used to group records by local day.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
