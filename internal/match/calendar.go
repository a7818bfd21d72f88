package match

import (
	"fmt"
	"time"
)

// WeeksPerYear is fixed by the box office calendar; there is no week 53.
const WeeksPerYear = 52

// FirstFriday returns the first Friday of year.
func FirstFriday(year int) time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// WeekEndDate returns the Thursday closing box office week of year.
// Week 1 runs from the first Friday of the year.
func WeekEndDate(year, week int) (time.Time, error) {
	if week < 1 || week > WeeksPerYear {
		return time.Time{}, fmt.Errorf("%w: week %d of %d", ErrInvalidPeriod, week, year)
	}
	return FirstFriday(year).AddDate(0, 0, 6+7*(week-1)), nil
}

// Calendar returns the 52 week end dates of year.
func Calendar(year int) []time.Time {
	out := make([]time.Time, WeeksPerYear)
	first := FirstFriday(year)
	for i := range out {
		out[i] = first.AddDate(0, 0, 6+7*i)
	}
	return out
}

// daysBetween returns the absolute calendar day distance of two dates.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
