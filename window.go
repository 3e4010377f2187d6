package timetable

import (
	"fmt"
	"time"

	"tidbyt.dev/timetable/model"
)

const (
	// Before 06:00 evening departures count as yesterday's.
	earlyMorningEnd  = 6 * 60
	eveningThreshold = 18 * 60

	upcomingSlots = 4
)

// One departure selected for display.
type Slot struct {
	Time    string
	Minutes int

	// The next departure.
	Next bool

	// The most recent departure already gone.
	Missed bool

	// Shown as tomorrow's departure since today's are exhausted.
	Tomorrow bool

	Countdown string
}

// Selects the departures to show from a stop's times: the last
// missed departure followed by the next four. now is minutes since
// midnight. Times that don't parse are skipped.
func DisplayWindow(times []string, now int) []Slot {
	slots := make([]Slot, 0, len(times))
	for _, t := range times {
		minutes, err := model.ParseClock(t)
		if err != nil {
			continue
		}
		slots = append(slots, Slot{Time: t, Minutes: minutes})
	}
	if len(slots) == 0 {
		return []Slot{}
	}

	earlyMorning := now < earlyMorningEnd

	next := -1
	if earlyMorning {
		next = firstAfter(slots, now, eveningThreshold)
	}
	if next == -1 {
		next = firstAfter(slots, now, -1)
	}

	display := []Slot{}

	if next == -1 {
		// All of today's departures are gone. Show the last one
		// and the first few of tomorrow.
		missed := slots[len(slots)-1]
		missed.Missed = true
		display = append(display, missed)

		for i := 0; i < len(slots) && i < upcomingSlots; i++ {
			slot := slots[i]
			slot.Tomorrow = true
			slot.Next = i == 0
			display = append(display, slot)
		}
		return display
	}

	missed := -1
	if earlyMorning {
		for i, slot := range slots {
			if slot.Minutes <= now || slot.Minutes > eveningThreshold {
				missed = i
			}
		}
	} else if next > 0 {
		missed = next - 1
	}
	if missed >= 0 {
		slot := slots[missed]
		slot.Missed = true
		display = append(display, slot)
	}

	for i := next; i < len(slots) && i < next+upcomingSlots; i++ {
		slot := slots[i]
		slot.Next = i == next
		display = append(display, slot)
	}

	return display
}

// Index of the first slot after now and, if before is not negative,
// before that minute.
func firstAfter(slots []Slot, now int, before int) int {
	for i, slot := range slots {
		if slot.Minutes <= now {
			continue
		}
		if before >= 0 && slot.Minutes >= before {
			continue
		}
		return i
	}
	return -1
}

// Instant the slot departs, relative to now. Upcoming departures
// already passed today are tomorrow's. Missed departures are always
// in the past.
func Departure(slot Slot, now time.Time) time.Time {
	h, m := slot.Minutes/60, slot.Minutes%60
	dep := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())

	if slot.Missed {
		if dep.After(now) {
			dep = dep.AddDate(0, 0, -1)
		}
		return dep
	}

	if !dep.After(now) {
		dep = dep.AddDate(0, 0, 1)
	}
	return dep
}

// Countdown text for a slot. now must be in the timetable's
// location.
func Countdown(slot Slot, now time.Time) string {
	return FormatCountdown(Departure(slot, now).Sub(now))
}

// "departed", "1h 5m", "4m 30s" or "12s".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "departed"
	}

	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
