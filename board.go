package timetable

import (
	"time"
)

type State int

const (
	// No refresh has completed yet.
	StatePending State = iota
	StateReady

	// The document resolved to no stops.
	StateNoTimetable

	// Nothing could be fetched and nothing was stored. Retried on
	// the next refresh.
	StateFetchFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateNoTimetable:
		return "no_timetable"
	case StateFetchFailed:
		return "fetch_failed"
	}
	return "unknown"
}

type StopBoard struct {
	Name  string
	Slots []Slot
}

// What to display at one instant. Built fresh on every display
// tick.
type Board struct {
	State     State
	At        time.Time
	Timetable *Timetable
	Stops     []StopBoard
	Err       error
}

// Builds the display board for now from a resolved timetable. Only
// the display window and countdowns are computed here; the day's
// departures are taken from tt as is.
func BuildBoard(tt *Timetable, now time.Time) *Board {
	if tt.Empty() {
		return &Board{State: StateNoTimetable, At: now, Timetable: tt}
	}

	loc := tt.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	board := &Board{
		State:     StateReady,
		At:        now,
		Timetable: tt,
		Stops:     make([]StopBoard, 0, len(tt.Stops)),
	}

	for _, stop := range tt.Stops {
		slots := DisplayWindow(stop.Times, minutes)
		for i := range slots {
			slots[i].Countdown = Countdown(slots[i], local)
		}
		board.Stops = append(board.Stops, StopBoard{Name: stop.Name, Slots: slots})
	}

	return board
}
