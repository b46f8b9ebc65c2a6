package workout

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a YYYY-MM-DD key into UTC midnight of that calendar day.
func ParseDate(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w [%s]", ErrInvalidDate, key)
	}
	return t, nil
}

// CalendarDay drops the time of day and zone of t, keeping its own Y/M/D.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DateKey(t time.Time) string {
	return CalendarDay(t).Format(DateLayout)
}

// WeekKey is the date key of the Sunday starting the week that contains t.
func WeekKey(t time.Time) string {
	day := CalendarDay(t)
	return DateKey(day.AddDate(0, 0, -int(day.Weekday())))
}
