package parse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"tidbyt.dev/timetable/model"
)

type EntryCSV struct {
	Season  string `csv:"season"`
	DayType string `csv:"day_type"`
	Stop    string `csv:"stop"`
	Time    string `csv:"time"`
	Days    string `csv:"days"`
	From    string `csv:"from"`
	To      string `csv:"to"`
}

type entryKey struct {
	season  string
	dayType string
	stop    string
	time    string
}

// Parses a flat CSV timetable into a season shaped document. One row
// per departure; rows sharing season, day type, stop and time are
// merged into one departure whose rules apply with OR semantics. A
// row without days/from/to makes the departure unconditional. Rows
// with a missing stop or bad time are dropped and reported in
// Document.Warnings; only undecodable CSV fails the document.
func ParseCSV(buf []byte) (*model.Document, error) {
	rows := []*EntryCSV{}

	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes.
	reader := gocsv.LazyCSVReader(bom.NewReader(bytes.NewReader(buf)))
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling csv")
	}

	doc := &model.Document{Shape: model.ShapeSeasons}

	seasonIdx := map[string]int{}
	dayTypeIdx := map[[2]string]int{}
	stopIdx := map[[3]string]int{}
	entryIdx := map[entryKey]int{}

	for i, row := range rows {
		season := strings.TrimSpace(row.Season)
		if season == "" {
			season = model.SeasonAllYear
		}
		dayType := strings.TrimSpace(row.DayType)
		if dayType == "" {
			dayType = string(model.DayTypeWeekday)
		}
		stop := strings.TrimSpace(row.Stop)
		if stop == "" {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("row %d: missing stop", i+1))
			continue
		}
		at := strings.TrimSpace(row.Time)
		if _, err := model.ParseClock(at); err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("row %d: %s", i+1, err))
			continue
		}

		si, found := seasonIdx[season]
		if !found {
			si = len(doc.Seasons)
			seasonIdx[season] = si
			doc.Seasons = append(doc.Seasons, model.Season{ID: season})
		}
		s := &doc.Seasons[si]

		di, found := dayTypeIdx[[2]string{season, dayType}]
		if !found {
			di = len(s.DayTypes)
			dayTypeIdx[[2]string{season, dayType}] = di
			s.DayTypes = append(s.DayTypes, model.DaySchedule{DayType: model.DayType(dayType)})
		}
		d := &s.DayTypes[di]

		ti, found := stopIdx[[3]string{season, dayType, stop}]
		if !found {
			ti = len(d.Stops)
			stopIdx[[3]string{season, dayType, stop}] = ti
			d.Stops = append(d.Stops, model.StopSchedule{Name: stop})
		}
		st := &d.Stops[ti]

		rule, conditional, err := csvRule(row)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("row %d: %s", i+1, err))
		}

		key := entryKey{season, dayType, stop, at}
		ei, found := entryIdx[key]
		if !found {
			entryIdx[key] = len(st.Entries)
			if conditional {
				st.Entries = append(st.Entries, model.TimedEntry{At: at, Rules: []model.Rule{rule}})
			} else {
				st.Entries = append(st.Entries, model.BareTime(at))
			}
			continue
		}

		existing, isTimed := st.Entries[ei].(model.TimedEntry)
		if !isTimed {
			// Already unconditional.
			continue
		}
		if !conditional {
			st.Entries[ei] = model.BareTime(at)
			continue
		}
		existing.Rules = append(existing.Rules, rule)
		st.Entries[ei] = existing
	}

	return doc, nil
}

func csvRule(row *EntryCSV) (model.Rule, bool, error) {
	rule := model.Rule{
		From: strings.TrimSpace(row.From),
		To:   strings.TrimSpace(row.To),
	}
	if (rule.From == "") != (rule.To == "") {
		// Kept so the departure stays conditional, but never runs.
		return model.Rule{Malformed: true}, true, fmt.Errorf("from and to must be given together")
	}

	days := strings.TrimSpace(row.Days)
	if days != "" {
		rule.Days = csvDays(days)
	}

	conditional := rule.Days != nil || rule.From != ""
	return rule, conditional, nil
}

func csvDays(s string) *model.Days {
	if strings.EqualFold(s, "daily") {
		return &model.Days{Daily: true}
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ' ' || r == ';'
	})

	days := &model.Days{Tokens: []model.DayToken{}}
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			days.Tokens = append(days.Tokens, model.DayToken{Number: n, Numeric: true})
		} else {
			days.Tokens = append(days.Tokens, model.DayToken{Name: f})
		}
	}
	return days
}
