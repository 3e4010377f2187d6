package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tidbyt.dev/timetable"
	"tidbyt.dev/timetable/model"
	"tidbyt.dev/timetable/testutil"
)

func ferryBoard(t *testing.T) *timetable.Board {
	doc := testutil.ParseDocument(t, testutil.FerryDocument)
	// Monday 10:00 in Malta
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	return timetable.BuildBoard(timetable.Resolve(doc, now), now)
}

func TestWriteBoardJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeBoard(buf, ferryBoard(t), "json"))

	v := boardView{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, "ready", v.State)
	assert.Equal(t, "Gozo Channel", v.Operator)
	assert.Equal(t, "2024-06-10", v.Date)
	assert.Equal(t, "10:00", v.Time)
	assert.Equal(t, "weekday", v.DayType)
	assert.Equal(t, "Weekdays Timetable", v.Label)
	require.Len(t, v.Stops, 2)
	assert.Equal(t, []slotView{
		{Time: "08:00", Missed: true, Countdown: "departed"},
		{Time: "12:00", Next: true, Countdown: "2h 0m"},
		{Time: "16:00", Countdown: "6h 0m", Rule: "mon,wed"},
		{Time: "20:00", Countdown: "10h 0m"},
	}, v.Stops[0].Departures)
}

func TestWriteBoardYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeBoard(buf, ferryBoard(t), "yaml"))

	v := boardView{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, "Europe/Malta", v.Timezone)
	require.Len(t, v.Stops, 2)
	assert.Equal(t, "Cirkewwa", v.Stops[1].Name)
	assert.Equal(t, "12:45", v.Stops[1].Departures[1].Time)
}

func TestWriteBoardCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeBoard(buf, ferryBoard(t), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "stop,time,next,missed,tomorrow,countdown,rule", lines[0])
	assert.Equal(t, "Mgarr,08:00,false,true,false,departed,", lines[1])
	assert.Equal(t, "Mgarr,16:00,false,false,false,6h 0m,\"mon,wed\"", lines[3])
}

func TestWriteBoardText(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeBoard(buf, ferryBoard(t), "text"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Gozo Channel, 2024-06-10 10:00 (Europe/Malta)\nWeekdays Timetable\n"))
	assert.Contains(t, out, "  > 12:00  2h 0m")

	buf.Reset()
	require.NoError(t, writeBoard(buf, &timetable.Board{State: timetable.StateNoTimetable}, "text"))
	assert.Equal(t, "No timetable available\n", buf.String())

	assert.Error(t, writeBoard(buf, ferryBoard(t), "xml"))
}

func TestDescribeRule(t *testing.T) {
	assert.Equal(t, "", describeRule(model.Rule{}))
	assert.Equal(t, "daily", describeRule(model.Rule{Days: &model.Days{Daily: true}}))
	assert.Equal(t, "sun,sat 06-01..09-30", describeRule(model.Rule{
		Days: &model.Days{Tokens: []model.DayToken{{Number: 0, Numeric: true}, {Name: "Sat"}}},
		From: "06-01",
		To:   "09-30",
	}))
}

func TestParseHeaders(t *testing.T) {
	h, err := parseHeaders([]string{"Authorization: Bearer x", "X-Api-Key:abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer x", "X-Api-Key": "abc"}, h)

	_, err = parseHeaders([]string{"nope"})
	assert.Error(t, err)
}
