package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Holds all external facing types and constants.

type DayType string

const (
	DayTypeWeekday       DayType = "weekday"
	DayTypeSaturday      DayType = "saturday"
	DayTypeSunday        DayType = "sunday"
	DayTypePublicHoliday DayType = "sunday_public_holiday"
	DayTypeNightService  DayType = "night_service"
	DayTypeAllYear       DayType = "all_year"
)

// Season key preferred over all others when present.
const SeasonAllYear = "all_year"

var dayTypeLabels = map[DayType]string{
	DayTypeWeekday:       "Weekdays Timetable",
	DayTypeSaturday:      "Saturday Timetable",
	DayTypePublicHoliday: "Public Holiday Timetable",
	DayTypeSunday:        "Sunday Timetable",
	DayTypeNightService:  "Night Service Timetable",
}

// Display label for a day type. Unknown keys are humanized,
// e.g. "school_holidays" becomes "school holidays".
func (d DayType) Label() string {
	if label, found := dayTypeLabels[d]; found {
		return label
	}
	return strings.ReplaceAll(string(d), "_", " ")
}

// The three document layouts accepted.
type Shape int

const (
	ShapeSeasons Shape = iota
	ShapeStopMap
	ShapeStopList
)

func (s Shape) String() string {
	switch s {
	case ShapeSeasons:
		return "seasons"
	case ShapeStopMap:
		return "stop_map"
	case ShapeStopList:
		return "stop_list"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

type Document struct {
	Operator string
	Timezone string
	Holidays []HolidaySpec
	Shape    Shape

	// Set for ShapeSeasons, in declaration order.
	Seasons []Season

	// Set for ShapeStopMap and ShapeStopList, in declaration order.
	Stops []StopSchedule

	// Problems with individual entries or holidays that were
	// dropped during parsing.
	Warnings []string
}

type Season struct {
	ID       string
	DayTypes []DaySchedule
}

// Returns the schedule declared for a day type, if any.
func (s Season) DayType(dt DayType) (DaySchedule, bool) {
	for _, d := range s.DayTypes {
		if d.DayType == dt {
			return d, true
		}
	}
	return DaySchedule{}, false
}

func (s Season) Declares(dt DayType) bool {
	_, found := s.DayType(dt)
	return found
}

type DaySchedule struct {
	DayType DayType
	Stops   []StopSchedule
}

type StopSchedule struct {
	Name    string
	Entries []Entry
}

// A scheduled departure. Either a BareTime or a TimedEntry.
type Entry interface {
	Time() string
	isEntry()
}

// Departure without conditions.
type BareTime string

func (b BareTime) Time() string { return string(b) }
func (BareTime) isEntry()       {}

// Departure that only runs when at least one of its rules matches.
// An empty rule list is unconditional.
type TimedEntry struct {
	At    string
	Rules []Rule
}

func (e TimedEntry) Time() string { return e.At }
func (TimedEntry) isEntry()       {}

// Constraints on a departure. All constraints present must hold.
type Rule struct {
	// Nil means any day.
	Days *Days

	// Either both MM-DD or both YYYY-MM-DD. Only evaluated when
	// both are set.
	From string
	To   string

	// Set when the document held something other than a rule
	// object. Never matches.
	Malformed bool
}

type Days struct {
	Daily  bool
	Tokens []DayToken

	// True when the document gave a single token rather than a
	// list.
	Single bool
}

// A weekday given either as number (0=Sunday) or by name.
type DayToken struct {
	Number  int
	Name    string
	Numeric bool
}

type HolidayKind int

const (
	HolidayAbsolute HolidayKind = iota
	HolidayRecurring
)

type HolidaySpec struct {
	Kind HolidayKind

	// YYYY-MM-DD for absolute holidays, MM-DD for recurring.
	Value string
}

// Parses a holiday value. Accepts YYYY-MM-DD or MM-DD.
func ParseHoliday(s string) (HolidaySpec, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 10:
		if _, _, _, err := splitDate(s); err != nil {
			return HolidaySpec{}, fmt.Errorf("invalid holiday '%s': %w", s, err)
		}
		return HolidaySpec{Kind: HolidayAbsolute, Value: s}, nil
	case 5:
		if _, _, err := splitMonthDay(s); err != nil {
			return HolidaySpec{}, fmt.Errorf("invalid holiday '%s': %w", s, err)
		}
		return HolidaySpec{Kind: HolidayRecurring, Value: s}, nil
	}
	return HolidaySpec{}, fmt.Errorf("invalid holiday '%s'", s)
}

// Parses an H:MM or HH:MM clock time into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("found %d parts in '%s'", len(parts), s)
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("malformed time '%s'", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}
	return h*60 + m, nil
}

func splitMonthDay(s string) (int, int, error) {
	if len(s) != 5 || s[2] != '-' {
		return 0, 0, fmt.Errorf("expected MM-DD")
	}
	m, errM := strconv.Atoi(s[0:2])
	d, errD := strconv.Atoi(s[3:5])
	if errM != nil || errD != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, fmt.Errorf("expected MM-DD")
	}
	return m, d, nil
}

func splitDate(s string) (int, int, int, error) {
	if len(s) != 10 || s[4] != '-' {
		return 0, 0, 0, fmt.Errorf("expected YYYY-MM-DD")
	}
	y, err := strconv.Atoi(s[0:4])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("expected YYYY-MM-DD")
	}
	m, d, err := splitMonthDay(s[5:])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("expected YYYY-MM-DD")
	}
	return y, m, d, nil
}
