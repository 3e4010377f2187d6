package parse

import (
	"fmt"

	"github.com/pkg/errors"

	"tidbyt.dev/timetable/model"
)

var ErrUnknownShape = errors.New("unrecognized timetable document")

// Top level keys of a stop map document that are never stop names.
var metadataKeys = map[string]bool{
	"metadata":        true,
	"operator":        true,
	"timezone":        true,
	"public_holidays": true,
	"publicHolidays":  true,
	"seasons":         true,
	"day_types":       true,
	"dayTypes":        true,
}

type parser struct {
	doc *model.Document
}

func (p *parser) warnf(format string, args ...interface{}) {
	p.doc.Warnings = append(p.doc.Warnings, fmt.Sprintf(format, args...))
}

// Parses a timetable document. JSON, JSON with comments and YAML are
// accepted, in any of three layouts:
//
//   - an object with "seasons", mapping season to day type to stop
//     to departures
//   - an object mapping stop name to departures
//   - an array of {"name": ..., "times": [...]} records
//
// Malformed departures and holidays are dropped and reported in
// Document.Warnings rather than failing the whole document.
func ParseDocument(buf []byte) (*model.Document, error) {
	tree, err := decodeTree(buf)
	if err != nil {
		return nil, err
	}

	p := &parser{doc: &model.Document{}}

	switch root := tree.(type) {
	case []interface{}:
		p.doc.Shape = model.ShapeStopList
		p.parseStopList(root)

	case object:
		p.parseMetadata(root)
		if seasons, found := root.lookup("seasons"); found {
			p.doc.Shape = model.ShapeSeasons
			if err := p.parseSeasons(seasons); err != nil {
				return nil, errors.Wrap(err, "parsing seasons")
			}
		} else {
			p.doc.Shape = model.ShapeStopMap
			p.parseStopMap(root)
		}

	default:
		return nil, ErrUnknownShape
	}

	return p.doc, nil
}

// Operator, timezone and holidays may sit at the top level or in a
// nested "metadata" object. Top level wins.
func (p *parser) parseMetadata(root object) {
	sources := []object{root}
	if meta, found := root.lookup("metadata"); found {
		if metaObj, ok := meta.(object); ok {
			sources = append(sources, metaObj)
		}
	}

	for _, src := range sources {
		if p.doc.Operator == "" {
			if v, found := src.lookup("operator"); found {
				p.doc.Operator, _ = scalarString(v)
			}
		}
		if p.doc.Timezone == "" {
			if v, found := src.lookup("timezone"); found {
				p.doc.Timezone, _ = scalarString(v)
			}
		}
	}

	for _, src := range sources {
		v, found := src.lookup("public_holidays", "publicHolidays")
		if !found {
			continue
		}
		list, ok := v.([]interface{})
		if !ok {
			p.warnf("holiday list is not a sequence")
			continue
		}
		p.doc.Holidays = p.parseHolidays(list)
		break
	}
}

func (p *parser) parseHolidays(list []interface{}) []model.HolidaySpec {
	holidays := []model.HolidaySpec{}
	for i, item := range list {
		s, ok := scalarString(item)
		if !ok {
			p.warnf("holiday %d: not a date", i)
			continue
		}
		h, err := model.ParseHoliday(s)
		if err != nil {
			p.warnf("holiday %d: %s", i, err)
			continue
		}
		holidays = append(holidays, h)
	}
	return holidays
}

func (p *parser) parseSeasons(raw interface{}) error {
	switch seasons := raw.(type) {
	case object:
		for _, m := range seasons {
			s, ok := m.value.(object)
			if !ok {
				p.warnf("season '%s': not a mapping", m.key)
				p.doc.Seasons = append(p.doc.Seasons, model.Season{ID: m.key})
				continue
			}
			p.doc.Seasons = append(p.doc.Seasons, p.parseSeason(m.key, s))
		}

	case []interface{}:
		for i, item := range seasons {
			s, ok := item.(object)
			if !ok {
				p.warnf("season %d: not a mapping", i)
				continue
			}
			id := ""
			if v, found := s.lookup("id", "name"); found {
				id, _ = scalarString(v)
			}
			if id == "" {
				id = fmt.Sprintf("season_%d", i)
			}
			p.doc.Seasons = append(p.doc.Seasons, p.parseSeason(id, s))
		}

	default:
		return fmt.Errorf("expected mapping or sequence")
	}

	return nil
}

// Day types are read from "day_types"/"dayTypes" when present,
// otherwise from the season object itself.
func (p *parser) parseSeason(id string, s object) model.Season {
	season := model.Season{ID: id}

	dayTypes := object{}
	if v, found := s.lookup("day_types", "dayTypes"); found {
		dt, ok := v.(object)
		if !ok {
			p.warnf("season '%s': day types not a mapping", id)
			return season
		}
		dayTypes = dt
	} else {
		for _, m := range s {
			if m.key == "id" || m.key == "name" || m.key == "notes" {
				continue
			}
			dayTypes = append(dayTypes, m)
		}
	}

	for _, m := range dayTypes {
		schedule := model.DaySchedule{DayType: model.DayType(m.key)}

		stops, ok := m.value.(object)
		if ok {
			if nested, found := stops.lookup("stops"); found {
				stops, ok = nested.(object)
			}
		}
		if !ok {
			p.warnf("season '%s' day type '%s': stops not a mapping", id, m.key)
			season.DayTypes = append(season.DayTypes, schedule)
			continue
		}

		for _, stop := range stops {
			raw, _ := stop.value.([]interface{})
			schedule.Stops = append(schedule.Stops, model.StopSchedule{
				Name:    stop.key,
				Entries: p.parseEntries(stop.key, raw),
			})
		}
		season.DayTypes = append(season.DayTypes, schedule)
	}

	return season
}

func (p *parser) parseStopMap(root object) {
	for _, m := range root {
		if metadataKeys[m.key] {
			continue
		}
		raw, ok := m.value.([]interface{})
		if !ok {
			continue
		}
		p.doc.Stops = append(p.doc.Stops, model.StopSchedule{
			Name:    m.key,
			Entries: p.parseEntries(m.key, raw),
		})
	}
}

func (p *parser) parseStopList(list []interface{}) {
	for i, item := range list {
		rec, ok := item.(object)
		if !ok {
			p.warnf("stop %d: not a mapping", i)
			continue
		}
		name := ""
		if v, found := rec.lookup("name"); found {
			name, _ = scalarString(v)
		}
		if name == "" {
			p.warnf("stop %d: missing name", i)
			continue
		}
		var raw []interface{}
		if v, found := rec.lookup("times", "schedule"); found {
			raw, _ = v.([]interface{})
		}
		p.doc.Stops = append(p.doc.Stops, model.StopSchedule{
			Name:    name,
			Entries: p.parseEntries(name, raw),
		})
	}
}
