package timetable

import (
	"time"

	"tidbyt.dev/timetable/model"
)

// Night service replaces the regular day type before this hour.
const nightServiceEndHour = 6

var (
	holidayFallback = []model.DayType{
		model.DayTypePublicHoliday,
		model.DayTypeSaturday,
		model.DayTypeSunday,
		model.DayTypeWeekday,
	}
	regularFallback = []model.DayType{
		model.DayTypeWeekday,
		model.DayTypeSaturday,
	}
)

// Picks the season in effect: "all_year" if declared, otherwise the
// first season of the document.
//
// TODO: seasons carry no date bounds, so documents with several
// seasons and no all_year always get the first one. Needs a
// switchover rule from the timetable publishers.
func SelectSeason(seasons []model.Season) (model.Season, bool) {
	for _, s := range seasons {
		if s.ID == model.SeasonAllYear {
			return s, true
		}
	}
	if len(seasons) == 0 {
		return model.Season{}, false
	}
	return seasons[0], true
}

// Picks the day type of season to use, given the Time Context and
// whether today is a public holiday. The result is always declared
// by the season, unless the season declares nothing at all, in which
// case it's blank.
func SelectDayType(season model.Season, tc TimeContext, holiday bool) model.DayType {
	requested, holidayChain := requestedDayType(season, tc, holiday)

	if season.Declares(requested) {
		return requested
	}

	fallback := regularFallback
	if holidayChain {
		fallback = holidayFallback
	}
	for _, dt := range fallback {
		if season.Declares(dt) {
			return dt
		}
	}

	if len(season.DayTypes) > 0 {
		return season.DayTypes[0].DayType
	}
	return ""
}

// Returns the preferred day type, and whether it came from the
// public holiday branch.
func requestedDayType(season model.Season, tc TimeContext, holiday bool) (model.DayType, bool) {
	if tc.Hour >= 0 && tc.Hour < nightServiceEndHour && season.Declares(model.DayTypeNightService) {
		return model.DayTypeNightService, false
	}

	if holiday {
		return model.DayTypePublicHoliday, true
	}

	switch tc.Weekday {
	case time.Sunday:
		// A season with a public holiday schedule runs it on
		// every Sunday, holiday list or not.
		if season.Declares(model.DayTypePublicHoliday) {
			return model.DayTypePublicHoliday, false
		}
		if season.Declares(model.DayTypeSunday) {
			return model.DayTypeSunday, false
		}
		return model.DayTypeWeekday, false
	case time.Saturday:
		return model.DayTypeSaturday, false
	}

	return model.DayTypeWeekday, false
}
