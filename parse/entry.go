package parse

import (
	"encoding/json"
	"strconv"

	"tidbyt.dev/timetable/model"
)

// Parses the departures of one stop. Entries that are neither a
// valid time nor a {"time": ...} record are dropped.
func (p *parser) parseEntries(stop string, raw []interface{}) []model.Entry {
	entries := []model.Entry{}

	for i, item := range raw {
		switch v := item.(type) {
		case string:
			if _, err := model.ParseClock(v); err != nil {
				p.warnf("stop '%s' entry %d: %s", stop, i, err)
				continue
			}
			entries = append(entries, model.BareTime(v))

		case object:
			at := ""
			if t, found := v.lookup("time"); found {
				at, _ = t.(string)
			}
			if _, err := model.ParseClock(at); err != nil {
				p.warnf("stop '%s' entry %d: %s", stop, i, err)
				continue
			}
			entry := model.TimedEntry{At: at}
			if rules, found := v.lookup("rules", "when"); found {
				if list, ok := rules.([]interface{}); ok {
					for _, r := range list {
						entry.Rules = append(entry.Rules, parseRule(r))
					}
				}
			}
			entries = append(entries, entry)

		default:
			p.warnf("stop '%s' entry %d: not a time", stop, i)
		}
	}

	return entries
}

func parseRule(raw interface{}) model.Rule {
	obj, ok := raw.(object)
	if !ok {
		return model.Rule{Malformed: true}
	}

	rule := model.Rule{}
	if v, found := obj.lookup("days"); found {
		rule.Days = parseDays(v)
	}
	if v, found := obj.lookup("from"); found {
		rule.From, _ = scalarString(v)
	}
	if v, found := obj.lookup("to"); found {
		rule.To, _ = scalarString(v)
	}
	return rule
}

func parseDays(raw interface{}) *model.Days {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		if v == "daily" {
			return &model.Days{Daily: true}
		}
		return &model.Days{Single: true, Tokens: []model.DayToken{{Name: v}}}

	case json.Number:
		return &model.Days{Single: true, Tokens: []model.DayToken{numericToken(v)}}

	case []interface{}:
		days := &model.Days{Tokens: []model.DayToken{}}
		for _, item := range v {
			switch d := item.(type) {
			case json.Number:
				days.Tokens = append(days.Tokens, numericToken(d))
			case string:
				days.Tokens = append(days.Tokens, model.DayToken{Name: d})
			}
		}
		return days
	}

	// Anything else can't name a weekday.
	return &model.Days{Tokens: []model.DayToken{}}
}

func numericToken(n json.Number) model.DayToken {
	i, err := strconv.Atoi(n.String())
	if err != nil {
		i = -1
	}
	return model.DayToken{Number: i, Numeric: true}
}
