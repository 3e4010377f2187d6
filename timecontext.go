package timetable

import (
	"fmt"
	"strings"
	"time"
)

// Calendar fields of an instant in a timetable's own timezone.
type TimeContext struct {
	// YYYY-MM-DD
	DateKey string
	Weekday time.Weekday
	Hour    int
	Minute  int
	Month   time.Month
	Day     int

	Location *time.Location
}

// Returns the MM-DD form of the date, as used by recurring
// holidays and date ranges.
func (tc TimeContext) MonthDay() string {
	return fmt.Sprintf("%02d-%02d", int(tc.Month), tc.Day)
}

// Minutes since local midnight.
func (tc TimeContext) Minutes() int {
	return tc.Hour*60 + tc.Minute
}

// Loads an IANA timezone. Empty or unknown identifiers give the
// local timezone of this process.
func LoadLocation(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// Computes the Time Context of instant in timezone tz. Never fails;
// see LoadLocation for the fallback.
func ResolveTimeContext(tz string, instant time.Time) TimeContext {
	return contextIn(LoadLocation(tz), instant)
}

func contextIn(loc *time.Location, instant time.Time) TimeContext {
	there := instant.In(loc)
	return TimeContext{
		DateKey:  there.Format("2006-01-02"),
		Weekday:  there.Weekday(),
		Hour:     there.Hour(),
		Minute:   there.Minute(),
		Month:    there.Month(),
		Day:      there.Day(),
		Location: loc,
	}
}
