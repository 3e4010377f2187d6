package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/timetable/model"
)

func TestParseCSV(t *testing.T) {
	doc, err := ParseCSV([]byte(`season,day_type,stop,time,days,from,to
,weekday,Mgarr,06:00,,,
,weekday,Mgarr,16:00,Mon,,
,weekday,Mgarr,16:00,Wed,,
,saturday,Mgarr,07:00,,,
,weekday,Cirkewwa,06:45,,,
summer,weekday,Cirkewwa,08:00,sat|sun,06-01,09-30
`))
	require.NoError(t, err)

	assert.Equal(t, &model.Document{
		Shape: model.ShapeSeasons,
		Seasons: []model.Season{
			{ID: "all_year", DayTypes: []model.DaySchedule{
				{DayType: model.DayTypeWeekday, Stops: []model.StopSchedule{
					{Name: "Mgarr", Entries: []model.Entry{
						model.BareTime("06:00"),
						model.TimedEntry{At: "16:00", Rules: []model.Rule{
							{Days: dayNames("Mon")},
							{Days: dayNames("Wed")},
						}},
					}},
					{Name: "Cirkewwa", Entries: []model.Entry{model.BareTime("06:45")}},
				}},
				{DayType: model.DayTypeSaturday, Stops: []model.StopSchedule{
					{Name: "Mgarr", Entries: []model.Entry{model.BareTime("07:00")}},
				}},
			}},
			{ID: "summer", DayTypes: []model.DaySchedule{
				{DayType: model.DayTypeWeekday, Stops: []model.StopSchedule{
					{Name: "Cirkewwa", Entries: []model.Entry{
						model.TimedEntry{At: "08:00", Rules: []model.Rule{
							{Days: dayNames("sat", "sun"), From: "06-01", To: "09-30"},
						}},
					}},
				}},
			}},
		},
	}, doc)
}

func TestParseCSVMinimal(t *testing.T) {
	// Byte order mark, CRLF line endings and only the required
	// columns.
	doc, err := ParseCSV([]byte("\xef\xbb\xbfstop,time\r\nMgarr,06:00\r\nMgarr,08:00\r\n"))
	require.NoError(t, err)

	require.Len(t, doc.Seasons, 1)
	assert.Equal(t, "all_year", doc.Seasons[0].ID)
	require.Len(t, doc.Seasons[0].DayTypes, 1)
	assert.Equal(t, model.DayTypeWeekday, doc.Seasons[0].DayTypes[0].DayType)
	assert.Equal(t, []model.StopSchedule{
		{Name: "Mgarr", Entries: []model.Entry{model.BareTime("06:00"), model.BareTime("08:00")}},
	}, doc.Seasons[0].DayTypes[0].Stops)
}

func TestParseCSVMergesRules(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		expected model.Entry
	}{
		{
			"conditional rows",
			"stop,time,days\nMgarr,16:00,0 6\nMgarr,16:00,daily\n",
			model.TimedEntry{At: "16:00", Rules: []model.Rule{
				{Days: &model.Days{Tokens: []model.DayToken{{Number: 0, Numeric: true}, {Number: 6, Numeric: true}}}},
				{Days: &model.Days{Daily: true}},
			}},
		},
		{
			"unconditional row wins",
			"stop,time,days\nMgarr,16:00,mon\nMgarr,16:00,\n",
			model.BareTime("16:00"),
		},
		{
			"unconditional first",
			"stop,time,days\nMgarr,16:00,\nMgarr,16:00,mon\n",
			model.BareTime("16:00"),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseCSV([]byte(tc.content))
			require.NoError(t, err)
			stops := doc.Seasons[0].DayTypes[0].Stops
			require.Len(t, stops, 1)
			assert.Equal(t, []model.Entry{tc.expected}, stops[0].Entries)
		})
	}
}

func TestParseCSVDropsBadRows(t *testing.T) {
	doc, err := ParseCSV([]byte(`stop,time,days,from,to
Mgarr,08:00,,,
Mgarr,25:99,,,
,09:00,,,
Mgarr,10:00,,06-01,
Mgarr,,,,
Mgarr,11:00,,,09-30
Mgarr,12:00,mon,,
`))
	require.NoError(t, err)

	require.Len(t, doc.Seasons, 1)
	require.Len(t, doc.Seasons[0].DayTypes, 1)
	assert.Equal(t, []model.StopSchedule{{
		Name: "Mgarr",
		Entries: []model.Entry{
			model.BareTime("08:00"),
			model.TimedEntry{At: "10:00", Rules: []model.Rule{{Malformed: true}}},
			model.TimedEntry{At: "11:00", Rules: []model.Rule{{Malformed: true}}},
			model.TimedEntry{At: "12:00", Rules: []model.Rule{{Days: dayNames("mon")}}},
		},
	}}, doc.Seasons[0].DayTypes[0].Stops)

	require.Len(t, doc.Warnings, 5)
	assert.Contains(t, doc.Warnings[0], "row 2")
	assert.Contains(t, doc.Warnings[1], "row 3")
	assert.Contains(t, doc.Warnings[2], "row 4")
	assert.Contains(t, doc.Warnings[3], "row 5")
	assert.Contains(t, doc.Warnings[4], "row 6")
}

func TestParseCSVErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"ragged rows", "stop,time\nMgarr,06:00,07:00\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV([]byte(tc.content))
			assert.Error(t, err)
		})
	}
}
