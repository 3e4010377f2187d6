package timetable

import (
	"strconv"
	"strings"
	"time"

	"tidbyt.dev/timetable/model"
)

var weekdayAbbrev = map[time.Weekday]string{
	time.Sunday:    "sun",
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
}

// Reports whether a departure runs on the day of the Time Context.
func EntryApplies(entry model.Entry, tc TimeContext) bool {
	ok, _ := matchEntry(entry, tc)
	return ok
}

// Returns whether the entry applies, and the index of the first
// matching rule. The index is -1 for unconditional entries.
func matchEntry(entry model.Entry, tc TimeContext) (bool, int) {
	timed, ok := entry.(model.TimedEntry)
	if !ok || len(timed.Rules) == 0 {
		return true, -1
	}

	for i, rule := range timed.Rules {
		if RuleMatches(rule, tc) {
			return true, i
		}
	}
	return false, -1
}

// Reports whether every constraint of rule holds for the Time
// Context.
func RuleMatches(rule model.Rule, tc TimeContext) bool {
	if rule.Malformed {
		return false
	}
	if !daysMatch(rule.Days, tc.Weekday) {
		return false
	}
	if rule.From != "" && rule.To != "" {
		return dateRangeMatches(rule.From, rule.To, tc)
	}
	return true
}

func daysMatch(days *model.Days, weekday time.Weekday) bool {
	if days == nil || days.Daily {
		return true
	}
	for _, token := range days.Tokens {
		if tokenIsWeekday(token, weekday) {
			return true
		}
	}
	return false
}

// Names compare on their first three letters, ignoring case, so
// "Mon", "monday" and "MONDAYS" all name Monday.
func tokenIsWeekday(token model.DayToken, weekday time.Weekday) bool {
	if token.Numeric {
		return token.Number == int(weekday)
	}
	name := strings.ToLower(token.Name)
	if len(name) > 3 {
		name = name[:3]
	}
	return name == weekdayAbbrev[weekday]
}

// Both bounds are inclusive. MM-DD ranges recur every year and wrap
// around new year when from is after to. YYYY-MM-DD ranges compare
// as text. Any other combination never matches.
func dateRangeMatches(from, to string, tc TimeContext) bool {
	if len(from) != len(to) {
		return false
	}

	switch len(from) {
	case 5:
		fromNum, errF := monthDayNumber(from)
		toNum, errT := monthDayNumber(to)
		today, errC := monthDayNumber(tc.MonthDay())
		if errF != nil || errT != nil || errC != nil {
			return false
		}
		if fromNum <= toNum {
			return today >= fromNum && today <= toNum
		}
		return today >= fromNum || today <= toNum

	case 10:
		return tc.DateKey >= from && tc.DateKey <= to
	}

	return false
}

// "12-01" -> 1201
func monthDayNumber(s string) (int, error) {
	return strconv.Atoi(strings.Replace(s, "-", "", 1))
}
