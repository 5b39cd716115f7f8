package model

import "time"

// DayLayout is the calendar-day format used across the API, the store and the
// progression engine. Day strings compare correctly with plain < and >.
const DayLayout = "2006-01-02"

func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}

// ShiftDay returns the day n days after (or before, for negative n) the given
// day string.
func ShiftDay(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}
