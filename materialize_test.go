package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/timetable/model"
	"tidbyt.dev/timetable/testutil"
)

func maltaTime(t testing.TB, value string) time.Time {
	loc, err := time.LoadLocation("Europe/Malta")
	require.NoError(t, err)
	instant, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return instant
}

func TestResolveSeasons(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.FerryDocument)

	for _, tc := range []struct {
		name            string
		at              string
		dayType         model.DayType
		holiday         bool
		holidaySchedule bool
		mgarr           []string
		cirkewwa        []string
	}{
		{
			"monday runs the conditional departure",
			"2024-06-10 10:00",
			model.DayTypeWeekday, false, false,
			[]string{"06:00", "08:00", "12:00", "16:00", "20:00"},
			[]string{"06:45", "08:45", "12:45", "20:45"},
		},
		{
			"tuesday skips it",
			"2024-06-11 10:00",
			model.DayTypeWeekday, false, false,
			[]string{"06:00", "08:00", "12:00", "20:00"},
			[]string{"06:45", "08:45", "12:45", "20:45"},
		},
		{
			"saturday",
			"2024-06-08 10:00",
			model.DayTypeSaturday, false, false,
			[]string{"07:00", "13:00"},
			[]string{"07:45", "13:45"},
		},
		{
			"sunday",
			"2024-06-09 10:00",
			model.DayTypePublicHoliday, false, true,
			[]string{"09:00"},
			[]string{"09:45"},
		},
		{
			"christmas",
			"2024-12-25 10:00",
			model.DayTypePublicHoliday, true, true,
			[]string{"09:00"},
			[]string{"09:45"},
		},
		{
			"recurring holiday",
			"2024-05-01 10:00",
			model.DayTypePublicHoliday, true, true,
			[]string{"09:00"},
			[]string{"09:45"},
		},
		{
			"christmas is absolute",
			"2025-12-25 10:00",
			model.DayTypeWeekday, false, false,
			[]string{"06:00", "08:00", "12:00", "20:00"},
			[]string{"06:45", "08:45", "12:45", "20:45"},
		},
		{
			"night service",
			"2024-06-10 03:00",
			model.DayTypeNightService, false, false,
			[]string{"01:00", "03:00"},
			[]string{"01:45", "03:45"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tt := Resolve(doc, maltaTime(t, tc.at))

			assert.Equal(t, "Gozo Channel", tt.Operator)
			assert.Equal(t, "Europe/Malta", tt.Timezone)
			assert.Equal(t, "all_year", tt.Season)
			assert.Equal(t, tc.dayType, tt.DayType)
			assert.Equal(t, tc.holiday, tt.Holiday)
			assert.Equal(t, tc.holidaySchedule, tt.PublicHolidayTimetable)
			assert.Equal(t, []StopTimes{
				{Name: "Mgarr", Times: tc.mgarr},
				{Name: "Cirkewwa", Times: tc.cirkewwa},
			}, tt.Stops)
			assert.False(t, tt.Empty())
		})
	}
}

func TestResolveUsesDocumentTimezone(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.FerryDocument)

	// Sunday 23:30 UTC is Monday 01:30 in Malta.
	tt := Resolve(doc, time.Date(2024, 6, 9, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, "2024-06-10", tt.Context.DateKey)
	assert.Equal(t, time.Monday, tt.Context.Weekday)
	assert.Equal(t, model.DayTypeNightService, tt.DayType)
}

func TestResolveAnnotations(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.FerryDocument)

	tt := Resolve(doc, maltaTime(t, "2024-06-10 10:00"))
	require.Len(t, tt.Annotations, 1)

	a, found := tt.Annotations[AnnotationKey{"Mgarr", "16:00"}]
	require.True(t, found)
	assert.Equal(t, 0, a.RuleIndex)
	require.NotNil(t, a.Rule.Days)
	assert.Equal(t, []model.DayToken{{Name: "Mon"}, {Name: "Wed"}}, a.Rule.Days.Tokens)

	tt = Resolve(doc, maltaTime(t, "2024-06-11 10:00"))
	assert.Empty(t, tt.Annotations)
}

func TestResolveStopMap(t *testing.T) {
	doc := testutil.ParseDocument(t, testutil.StopMapDocument)

	tt := Resolve(doc, maltaTime(t, "2024-06-10 10:00"))

	assert.Equal(t, model.ShapeStopMap, tt.Shape)
	assert.Equal(t, "Gozo Channel", tt.Operator)
	assert.Equal(t, "Europe/Malta", tt.Timezone)
	assert.Equal(t, "", tt.Season)
	assert.Equal(t, model.DayType(""), tt.DayType)
	assert.Equal(t, []StopTimes{
		{Name: "Mgarr", Times: []string{"06:00", "08:00", "12:00"}},
		{Name: "Cirkewwa", Times: []string{"06:45", "08:45", "12:45"}},
	}, tt.Stops)

	for _, stop := range tt.Stops {
		assert.NotEqual(t, "operator", stop.Name)
		assert.NotEqual(t, "timezone", stop.Name)
	}
}

func TestResolveDefaultTimezone(t *testing.T) {
	doc := &model.Document{
		Shape: model.ShapeStopList,
		Stops: []model.StopSchedule{
			{Name: "Valletta", Entries: []model.Entry{model.BareTime("10:00")}},
		},
	}
	instant := time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC)

	tt := Resolve(doc, instant)
	assert.Equal(t, DefaultTimezone, tt.Timezone)
	assert.Equal(t, "2024-06-11", tt.Context.DateKey)

	tt = Resolve(doc, instant, Options{DefaultTimezone: "America/New_York"})
	assert.Equal(t, "America/New_York", tt.Timezone)
	assert.Equal(t, "2024-06-10", tt.Context.DateKey)

	doc.Timezone = "Europe/London"
	tt = Resolve(doc, instant, Options{DefaultTimezone: "America/New_York"})
	assert.Equal(t, "Europe/London", tt.Timezone)
	assert.Equal(t, "2024-06-11", tt.Context.DateKey)
}

func TestResolveEmpty(t *testing.T) {
	instant := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name string
		doc  *model.Document
	}{
		{"no seasons", &model.Document{Shape: model.ShapeSeasons}},
		{"no day types", &model.Document{Shape: model.ShapeSeasons, Seasons: []model.Season{{ID: "all_year"}}}},
		{"no stops", &model.Document{Shape: model.ShapeStopMap}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tt := Resolve(tc.doc, instant)
			assert.True(t, tt.Empty())
			assert.Empty(t, tt.Stops)
		})
	}

	var nilTimetable *Timetable
	assert.True(t, nilTimetable.Empty())

	// A stop without departures today is still a stop.
	doc := &model.Document{
		Shape: model.ShapeStopMap,
		Stops: []model.StopSchedule{{
			Name: "Mgarr",
			Entries: []model.Entry{
				model.TimedEntry{At: "08:00", Rules: []model.Rule{{Days: &model.Days{Tokens: []model.DayToken{{Name: "sun"}}}}}},
			},
		}},
	}
	tt := Resolve(doc, instant)
	assert.False(t, tt.Empty())
	assert.Equal(t, []StopTimes{{Name: "Mgarr", Times: []string{}}}, tt.Stops)
}

func TestMaterializeDropsInvalidTimes(t *testing.T) {
	stops := []model.StopSchedule{{
		Name: "Mgarr",
		Entries: []model.Entry{
			model.BareTime("08:00"),
			model.BareTime("25:00"),
			nil,
			model.TimedEntry{At: "8.30"},
			model.BareTime("9:15"),
		},
	}}

	out, annotations := Materialize(stops, on("2024-06-10"))
	assert.Equal(t, []StopTimes{{Name: "Mgarr", Times: []string{"08:00", "9:15"}}}, out)
	assert.Empty(t, annotations)
}

func TestSeasonLabel(t *testing.T) {
	dated := func(from, to string) *model.Document {
		return &model.Document{
			Shape: model.ShapeSeasons,
			Seasons: []model.Season{{
				ID: "all_year",
				DayTypes: []model.DaySchedule{
					{DayType: model.DayTypeWeekday, Stops: []model.StopSchedule{{
						Name: "Mgarr",
						Entries: []model.Entry{
							model.BareTime("08:00"),
						},
					}}},
					{DayType: model.DayTypeSaturday, Stops: []model.StopSchedule{{
						Name: "Mgarr",
						Entries: []model.Entry{
							model.TimedEntry{At: "10:00", Rules: []model.Rule{{From: from, To: to}}},
						},
					}}},
				},
			}},
		}
	}

	for _, tc := range []struct {
		name     string
		from, to string
		at       string
		expected string
		label    string
	}{
		{"summer", "06-01", "09-30", "2024-06-10 10:00", "Summer timetable", "Summer timetable"},
		{"winter", "10-01", "04-30", "2024-12-10 10:00", "Winter timetable", "Winter timetable"},
		{"not covered", "10-01", "04-30", "2024-06-10 10:00", "", "Weekdays Timetable"},
		{"absolute", "2024-05-01", "2024-05-31", "2024-05-15 10:00", "Summer timetable", "Summer timetable"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tt := Resolve(dated(tc.from, tc.to), maltaTime(t, tc.at))
			assert.Equal(t, tc.expected, tt.SeasonLabel)
			assert.Equal(t, tc.label, tt.Label())
		})
	}
}
