package match

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for a box office period that cannot exist
// or has not been published yet.
var ErrInvalidPeriod = errors.New("invalid box office period")

// FirstTrackedYear is the first year with weekly box office charts.
const FirstTrackedYear = 1982

// ValidatePeriod checks (year, week) against the chart calendar as of now.
// Weeks of the current year are only accepted once a full Sunday based
// week has passed since they closed.
func ValidatePeriod(year, week int, now time.Time) error {
	if year < FirstTrackedYear {
		return fmt.Errorf("%w: year %d is before %d", ErrInvalidPeriod, year, FirstTrackedYear)
	}
	if week < 1 || week > WeeksPerYear {
		return fmt.Errorf("%w: week %d is outside 1-%d", ErrInvalidPeriod, week, WeeksPerYear)
	}
	if year > now.Year() {
		return fmt.Errorf("%w: year %d is in the future", ErrInvalidPeriod, year)
	}
	if year == now.Year() && SundayWeek(now)-1 < week {
		return fmt.Errorf("%w: week %d of %d is not published yet", ErrInvalidPeriod, week, year)
	}
	return nil
}

// SundayWeek returns the week number of t where weeks start on Sunday and
// days before the first Sunday fall in week 0.
func SundayWeek(t time.Time) int {
	return (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
}

// LastExtractableWeek returns the last week of year to extract as of now.
// Past years are complete; for the current year it is the last week
// ValidatePeriod accepts, so both agree across the new year.
func LastExtractableWeek(year int, now time.Time) int {
	if year < now.Year() {
		return WeeksPerYear
	}
	if year > now.Year() {
		return 0
	}
	return max(0, min(SundayWeek(now)-1, WeeksPerYear))
}
