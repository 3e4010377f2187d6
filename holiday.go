package timetable

import (
	"tidbyt.dev/timetable/model"
)

// Reports whether the Time Context falls on any of the holidays.
// Absolute holidays match the full date, recurring ones the month
// and day of any year. No holidays means no holiday.
func IsHoliday(tc TimeContext, holidays []model.HolidaySpec) bool {
	monthDay := tc.MonthDay()
	for _, h := range holidays {
		switch h.Kind {
		case model.HolidayAbsolute:
			if h.Value == tc.DateKey {
				return true
			}
		case model.HolidayRecurring:
			if h.Value == monthDay {
				return true
			}
		}
	}
	return false
}
