package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tidbyt.dev/timetable/model"
)

func on(date string) TimeContext {
	d, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	return contextIn(time.UTC, d.Add(12*time.Hour))
}

func names(names ...string) *model.Days {
	days := &model.Days{Tokens: []model.DayToken{}}
	for _, n := range names {
		days.Tokens = append(days.Tokens, model.DayToken{Name: n})
	}
	return days
}

func numbers(numbers ...int) *model.Days {
	days := &model.Days{Tokens: []model.DayToken{}}
	for _, n := range numbers {
		days.Tokens = append(days.Tokens, model.DayToken{Number: n, Numeric: true})
	}
	return days
}

func TestRuleMatchesDays(t *testing.T) {
	// Monday
	ctx := on("2024-06-10")

	for _, tc := range []struct {
		name     string
		days     *model.Days
		expected bool
	}{
		{"no days", nil, true},
		{"daily", &model.Days{Daily: true}, true},
		{"abbreviation", names("Mon"), true},
		{"full name", names("Monday"), true},
		{"plural upper case", names("MONDAYS"), true},
		{"other days", names("Tue", "Wed"), false},
		{"one of several", names("Sun", "mon"), true},
		{"number", numbers(1), true},
		{"sunday number", numbers(0), false},
		{"mixed", &model.Days{Tokens: []model.DayToken{{Name: "fri"}, {Number: 1, Numeric: true}}}, true},
		{"short name", names("mo"), false},
		{"empty list", names(), false},
		{"single token", &model.Days{Single: true, Tokens: []model.DayToken{{Name: "mon"}}}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, RuleMatches(model.Rule{Days: tc.days}, ctx))
		})
	}
}

func TestRuleMatchesDateRange(t *testing.T) {
	for _, tc := range []struct {
		name     string
		from, to string
		date     string
		expected bool
	}{
		{"wrapping range, january", "12-01", "02-28", "2024-01-15", true},
		{"wrapping range, june", "12-01", "02-28", "2024-06-15", false},
		{"wrapping range, first day", "12-01", "02-28", "2024-12-01", true},
		{"wrapping range, last day", "12-01", "02-28", "2025-02-28", true},
		{"wrapping range, day after", "12-01", "02-28", "2024-03-01", false},
		{"recurring range", "05-01", "09-30", "2031-07-04", true},
		{"recurring range, outside", "05-01", "09-30", "2031-10-01", false},
		{"single day", "06-10", "06-10", "2024-06-10", true},

		{"absolute, upper bound", "2024-06-01", "2024-06-10", "2024-06-10", true},
		{"absolute, day after", "2024-06-01", "2024-06-10", "2024-06-11", false},
		{"absolute, lower bound", "2024-06-01", "2024-06-10", "2024-06-01", true},
		{"absolute, other year", "2024-06-01", "2024-06-10", "2025-06-05", false},

		{"mismatched lengths", "06-01", "2024-06-10", "2024-06-05", false},
		{"unsupported length", "6-1", "6-30", "2024-06-05", false},
		{"not numeric", "ab-cd", "ef-gh", "2024-06-05", false},

		{"only from", "06-01", "", "2024-01-01", true},
		{"only to", "", "06-01", "2024-12-01", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rule := model.Rule{From: tc.from, To: tc.to}
			assert.Equal(t, tc.expected, RuleMatches(rule, on(tc.date)))
		})
	}
}

func TestRuleMatchesAllConstraints(t *testing.T) {
	rule := model.Rule{Days: names("sat", "sun"), From: "06-01", To: "09-30"}

	assert.True(t, RuleMatches(rule, on("2024-06-08")))  // Saturday
	assert.False(t, RuleMatches(rule, on("2024-06-10"))) // Monday
	assert.False(t, RuleMatches(rule, on("2024-12-07"))) // Saturday, out of range

	assert.False(t, RuleMatches(model.Rule{Malformed: true}, on("2024-06-08")))
}

func TestEntryApplies(t *testing.T) {
	monday := on("2024-06-10")

	for _, tc := range []struct {
		name     string
		entry    model.Entry
		expected bool
	}{
		{"bare time", model.BareTime("08:00"), true},
		{"no rules", model.TimedEntry{At: "08:00"}, true},
		{"empty rules", model.TimedEntry{At: "08:00", Rules: []model.Rule{}}, true},
		{"matching rule", model.TimedEntry{At: "08:00", Rules: []model.Rule{{Days: names("mon")}}}, true},
		{"no matching rule", model.TimedEntry{At: "08:00", Rules: []model.Rule{{Days: names("tue")}}}, false},
		{
			"any rule matches",
			model.TimedEntry{At: "08:00", Rules: []model.Rule{
				{Days: names("tue")},
				{Malformed: true},
				{Days: numbers(1)},
			}},
			true,
		},
		{"only malformed", model.TimedEntry{At: "08:00", Rules: []model.Rule{{Malformed: true}}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EntryApplies(tc.entry, monday))
		})
	}
}
