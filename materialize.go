package timetable

import (
	"time"

	"tidbyt.dev/timetable/model"
)

// Timezone assumed for documents that don't declare one.
const DefaultTimezone = "Europe/Malta"

type Options struct {
	// Used when the document has no timezone. Blank means
	// DefaultTimezone.
	DefaultTimezone string
}

// Today's departures at one stop, in document order.
type StopTimes struct {
	Name  string
	Times []string
}

type AnnotationKey struct {
	Stop string
	Time string
}

// Explains why a conditional departure is included today.
type Annotation struct {
	Stop      string
	Time      string
	Rule      model.Rule
	RuleIndex int
}

// A document resolved for one instant. Never modified after
// Resolve returns.
type Timetable struct {
	Operator string
	Timezone string
	Location *time.Location
	Context  TimeContext
	Shape    model.Shape

	// Whether today is in the document's holiday list.
	Holiday bool

	// Whether today runs the public holiday timetable; true on
	// holidays and on Sundays served by sunday_public_holiday.
	PublicHolidayTimetable bool

	// Blank for documents without seasons.
	Season  string
	DayType model.DayType

	// "Summer timetable" or "Winter timetable" when a dated rule
	// covers today.
	SeasonLabel string

	Stops       []StopTimes
	Annotations map[AnnotationKey]Annotation
}

// True when there is nothing to show. This is final for the
// document; a failed fetch is reported separately.
func (t *Timetable) Empty() bool {
	return t == nil || len(t.Stops) == 0
}

// Heading for the timetable: the season label when known, otherwise
// the label of the day type.
func (t *Timetable) Label() string {
	if t.SeasonLabel != "" {
		return t.SeasonLabel
	}
	if t.DayType != "" {
		return t.DayType.Label()
	}
	return ""
}

// Resolves which departures of doc are in effect on the day of
// instant, in the document's timezone.
func Resolve(doc *model.Document, instant time.Time, opts ...Options) *Timetable {
	o := Options{}
	if len(opts) > 0 {
		o = opts[0]
	}

	tz := doc.Timezone
	if tz == "" {
		tz = o.DefaultTimezone
	}
	if tz == "" {
		tz = DefaultTimezone
	}

	tc := ResolveTimeContext(tz, instant)

	t := &Timetable{
		Operator: doc.Operator,
		Timezone: tz,
		Location: tc.Location,
		Context:  tc,
		Shape:    doc.Shape,
		Holiday:  IsHoliday(tc, doc.Holidays),
	}

	var stops []model.StopSchedule
	if doc.Shape == model.ShapeSeasons {
		stops = t.selectSchedule(doc.Seasons)
	} else {
		stops = doc.Stops
	}

	t.Stops, t.Annotations = Materialize(stops, tc)
	t.SeasonLabel = detectSeasonLabel(doc, tc)

	return t
}

func (t *Timetable) selectSchedule(seasons []model.Season) []model.StopSchedule {
	season, found := SelectSeason(seasons)
	if !found {
		return nil
	}
	t.Season = season.ID
	t.DayType = SelectDayType(season, t.Context, t.Holiday)
	t.PublicHolidayTimetable = t.Holiday || t.DayType == model.DayTypePublicHoliday

	schedule, found := season.DayType(t.DayType)
	if !found {
		return nil
	}
	return schedule.Stops
}

// Reduces each stop's entries to the literal times that apply on the
// day of tc. Entries that aren't valid times are dropped. Order is
// kept as given.
func Materialize(stops []model.StopSchedule, tc TimeContext) ([]StopTimes, map[AnnotationKey]Annotation) {
	out := make([]StopTimes, 0, len(stops))
	annotations := map[AnnotationKey]Annotation{}

	for _, stop := range stops {
		times := []string{}
		for _, entry := range stop.Entries {
			if entry == nil {
				continue
			}
			if _, err := model.ParseClock(entry.Time()); err != nil {
				continue
			}
			ok, ruleIdx := matchEntry(entry, tc)
			if !ok {
				continue
			}
			times = append(times, entry.Time())

			if ruleIdx >= 0 {
				rule := entry.(model.TimedEntry).Rules[ruleIdx]
				annotations[AnnotationKey{stop.Name, entry.Time()}] = Annotation{
					Stop:      stop.Name,
					Time:      entry.Time(),
					Rule:      rule,
					RuleIndex: ruleIdx,
				}
			}
		}
		out = append(out, StopTimes{Name: stop.Name, Times: times})
	}

	return out, annotations
}

// Finds the first dated rule anywhere in the document covering today
// and names the season by the current month: May to September is
// summer, the rest winter.
func detectSeasonLabel(doc *model.Document, tc TimeContext) string {
	covered := false
	visit := func(stops []model.StopSchedule) {
		for _, stop := range stops {
			for _, entry := range stop.Entries {
				timed, ok := entry.(model.TimedEntry)
				if !ok {
					continue
				}
				for _, rule := range timed.Rules {
					if rule.From != "" && rule.To != "" && dateRangeMatches(rule.From, rule.To, tc) {
						covered = true
						return
					}
				}
			}
		}
	}

	visit(doc.Stops)
	for _, season := range doc.Seasons {
		for _, dt := range season.DayTypes {
			if covered {
				break
			}
			visit(dt.Stops)
		}
	}

	if !covered {
		return ""
	}
	if tc.Month >= time.May && tc.Month <= time.September {
		return "Summer timetable"
	}
	return "Winter timetable"
}
