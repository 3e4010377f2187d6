package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tidbyt.dev/timetable"
	"tidbyt.dev/timetable/model"
)

var showCmd = &cobra.Command{
	Use:   "show [url|path]",
	Short: "Shows today's departures and the display board",
	Args:  cobra.RangeArgs(0, 1),
	RunE:  show,
}

var (
	at       string
	format   string
	timezone string
)

func init() {
	showCmd.Flags().StringVarP(&at, "at", "", "", "Instant to resolve for, in RFC3339 (default now)")
	showCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml, csv)")
	showCmd.Flags().StringVarP(&timezone, "timezone", "", "", "Timezone for documents that don't declare one")
	rootCmd.AddCommand(showCmd)
}

func show(cmd *cobra.Command, args []string) error {
	source, err := sourceURL(args)
	if err != nil {
		return err
	}

	now, err := instant(at)
	if err != nil {
		return err
	}

	doc, err := loadDocument(cmd.Context(), source)
	if err != nil {
		return err
	}

	tz := cfg.DefaultTimezone
	if timezone != "" {
		tz = timezone
	}

	tt := timetable.Resolve(doc, now, timetable.Options{DefaultTimezone: tz})
	board := timetable.BuildBoard(tt, now)

	return writeBoard(cmd.OutOrStdout(), board, format)
}

func instant(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at: %w", err)
	}
	return t, nil
}

type boardView struct {
	State                  string     `json:"state" yaml:"state"`
	Operator               string     `json:"operator,omitempty" yaml:"operator,omitempty"`
	Timezone               string     `json:"timezone" yaml:"timezone"`
	Date                   string     `json:"date" yaml:"date"`
	Time                   string     `json:"time" yaml:"time"`
	Season                 string     `json:"season,omitempty" yaml:"season,omitempty"`
	DayType                string     `json:"day_type,omitempty" yaml:"day_type,omitempty"`
	Label                  string     `json:"label,omitempty" yaml:"label,omitempty"`
	Holiday                bool       `json:"holiday" yaml:"holiday"`
	PublicHolidayTimetable bool       `json:"public_holiday_timetable" yaml:"public_holiday_timetable"`
	Stops                  []stopView `json:"stops" yaml:"stops"`
}

type stopView struct {
	Name       string     `json:"name" yaml:"name"`
	Departures []slotView `json:"departures" yaml:"departures"`
}

type slotView struct {
	Time      string `json:"time" yaml:"time"`
	Next      bool   `json:"next,omitempty" yaml:"next,omitempty"`
	Missed    bool   `json:"missed,omitempty" yaml:"missed,omitempty"`
	Tomorrow  bool   `json:"tomorrow,omitempty" yaml:"tomorrow,omitempty"`
	Countdown string `json:"countdown" yaml:"countdown"`
	Rule      string `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// One CSV row per displayed departure.
type slotRow struct {
	Stop      string `csv:"stop"`
	Time      string `csv:"time"`
	Next      bool   `csv:"next"`
	Missed    bool   `csv:"missed"`
	Tomorrow  bool   `csv:"tomorrow"`
	Countdown string `csv:"countdown"`
	Rule      string `csv:"rule"`
}

func viewOf(board *timetable.Board) *boardView {
	v := &boardView{
		State: board.State.String(),
		Stops: []stopView{},
	}

	tt := board.Timetable
	if tt != nil {
		v.Operator = tt.Operator
		v.Timezone = tt.Timezone
		v.Date = tt.Context.DateKey
		v.Time = fmt.Sprintf("%02d:%02d", tt.Context.Hour, tt.Context.Minute)
		v.Season = tt.Season
		v.DayType = string(tt.DayType)
		v.Label = tt.Label()
		v.Holiday = tt.Holiday
		v.PublicHolidayTimetable = tt.PublicHolidayTimetable
	}

	for _, stop := range board.Stops {
		sv := stopView{Name: stop.Name, Departures: []slotView{}}
		for _, slot := range stop.Slots {
			rule := ""
			if a, found := tt.Annotations[timetable.AnnotationKey{Stop: stop.Name, Time: slot.Time}]; found {
				rule = describeRule(a.Rule)
			}
			sv.Departures = append(sv.Departures, slotView{
				Time:      slot.Time,
				Next:      slot.Next,
				Missed:    slot.Missed,
				Tomorrow:  slot.Tomorrow,
				Countdown: slot.Countdown,
				Rule:      rule,
			})
		}
		v.Stops = append(v.Stops, sv)
	}

	return v
}

// E.g. "mon,wed 06-01..09-30".
func describeRule(rule model.Rule) string {
	parts := []string{}
	if rule.Days != nil {
		if rule.Days.Daily {
			parts = append(parts, "daily")
		} else {
			days := []string{}
			for _, d := range rule.Days.Tokens {
				if d.Numeric && d.Number >= 0 && d.Number <= 6 {
					days = append(days, time.Weekday(d.Number).String()[:3])
				} else if d.Numeric {
					days = append(days, fmt.Sprint(d.Number))
				} else {
					days = append(days, d.Name)
				}
			}
			parts = append(parts, strings.ToLower(strings.Join(days, ",")))
		}
	}
	if rule.From != "" && rule.To != "" {
		parts = append(parts, rule.From+".."+rule.To)
	}
	return strings.Join(parts, " ")
}

func writeBoard(w io.Writer, board *timetable.Board, format string) error {
	v := viewOf(board)

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	case "csv":
		rows := []*slotRow{}
		for _, stop := range v.Stops {
			for _, d := range stop.Departures {
				rows = append(rows, &slotRow{
					Stop:      stop.Name,
					Time:      d.Time,
					Next:      d.Next,
					Missed:    d.Missed,
					Tomorrow:  d.Tomorrow,
					Countdown: d.Countdown,
					Rule:      d.Rule,
				})
			}
		}
		return gocsv.Marshal(&rows, w)

	case "text":
		writeText(w, v, board.Err)
		return nil
	}

	return fmt.Errorf("unknown format '%s'", format)
}

func writeText(w io.Writer, v *boardView, err error) {
	switch v.State {
	case timetable.StatePending.String():
		fmt.Fprintln(w, "Loading timetable...")
		return
	case timetable.StateFetchFailed.String():
		fmt.Fprintf(w, "Timetable unavailable: %s\n", err)
		return
	case timetable.StateNoTimetable.String():
		fmt.Fprintln(w, "No timetable available")
		return
	}

	heading := v.Operator
	if heading == "" {
		heading = "Timetable"
	}
	fmt.Fprintf(w, "%s, %s %s (%s)\n", heading, v.Date, v.Time, v.Timezone)
	if v.Label != "" {
		fmt.Fprintln(w, v.Label)
	}

	for _, stop := range v.Stops {
		fmt.Fprintf(w, "\n%s\n", stop.Name)
		if len(stop.Departures) == 0 {
			fmt.Fprintln(w, "  no departures today")
			continue
		}
		for _, d := range stop.Departures {
			marker := " "
			if d.Next {
				marker = ">"
			}
			note := d.Rule
			if d.Tomorrow {
				note = strings.TrimSpace("tomorrow " + note)
			}
			fmt.Fprintf(w, "  %s %5s  %-8s %s\n", marker, d.Time, d.Countdown, note)
		}
	}
}
