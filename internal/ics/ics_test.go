package ics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/model"
)

var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func weekWindow() model.Interval {
	return model.Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
}

func calendar(veventLines ...string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
	}
	lines = append(lines, veventLines...)
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParseSingleEvent(t *testing.T) {
	body := calendar(
		"UID:dentist",
		"DTSTAMP:20260301T000000Z",
		"DTSTART:20260303T140000Z",
		"DTEND:20260303T150000Z",
		"SUMMARY:Dentist",
		"LOCATION:Town",
	)
	events, err := Parse(Source{ID: "personal"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "dentist", ev.UID)
	assert.Equal(t, "Dentist", ev.Summary)
	assert.Equal(t, "Town", ev.Location)
	assert.False(t, ev.AllDay)
	assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))
	assert.Empty(t, ev.RawRRule)
}

func TestParseAllDayAndRRule(t *testing.T) {
	body := calendar(
		"UID:offsite",
		"DTSTAMP:20260301T000000Z",
		"DTSTART;VALUE=DATE:20260305",
		"DTEND;VALUE=DATE:20260306",
		"SUMMARY:Offsite",
		"RRULE:FREQ=WEEKLY;BYDAY=TH",
	)
	events, err := Parse(Source{ID: "work"}, body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=TH", events[0].RawRRule)
}

func TestParseSkipsEventWithoutUID(t *testing.T) {
	body := calendar(
		"DTSTAMP:20260301T000000Z",
		"DTSTART:20260303T140000Z",
		"DTEND:20260303T150000Z",
		"SUMMARY:Anonymous",
	)
	events, err := Parse(Source{ID: "x"}, body)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseEmptyBody(t *testing.T) {
	_, err := Parse(Source{ID: "x"}, nil)
	require.Error(t, err)
}

func TestExpandRecurringWithinWeek(t *testing.T) {
	events := []BusyEvent{{
		Source:   Source{ID: "work"},
		UID:      "standup",
		Summary:  "Standup",
		Start:    time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;BYDAY=MO,WE",
	}}

	out := Expand(events, ExpandConfig{Location: time.UTC, Window: weekWindow()})
	require.Len(t, out, 2)
	assert.Equal(t, "standup@2026-03-02", out[0].ID)
	assert.Equal(t, monday.Add(9*time.Hour), out[0].Start)
	assert.Equal(t, 15*time.Minute, out[0].End.Sub(out[0].Start))
	assert.Equal(t, "standup@2026-03-04", out[1].ID)
	assert.True(t, out[1].Locked)
	assert.Equal(t, "work", out[1].Source)
}

func TestExpandHonorsExDate(t *testing.T) {
	events := []BusyEvent{{
		Source:   Source{ID: "work"},
		UID:      "standup",
		Start:    time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;BYDAY=MO,WE",
		ExDates:  []time.Time{time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)},
	}}

	out := Expand(events, ExpandConfig{Location: time.UTC, Window: weekWindow()})
	require.Len(t, out, 1)
	assert.Equal(t, "standup@2026-03-02", out[0].ID)
}

func TestExpandFiltersSingleEventsOutsideWindow(t *testing.T) {
	events := []BusyEvent{
		{
			UID:   "inside",
			Start: monday.Add(30 * time.Hour),
			End:   monday.Add(31 * time.Hour),
		},
		{
			UID:   "outside",
			Start: monday.AddDate(0, 0, 9),
			End:   monday.AddDate(0, 0, 9).Add(time.Hour),
		},
	}
	out := Expand(events, ExpandConfig{Location: time.UTC, Window: weekWindow()})
	require.Len(t, out, 1)
	assert.Equal(t, "inside", out[0].TemplateID)
}

func TestExportWeekContainsBlocksAndEvents(t *testing.T) {
	events := []model.Instance{{
		ID:    "standup@2026-03-02",
		Title: "Standup",
		Start: monday.Add(9 * time.Hour),
		End:   monday.Add(9*time.Hour + 15*time.Minute),
	}}
	blocks := []model.Block{{
		ID: "b1", GoalID: "g1",
		Start: monday.Add(18 * time.Hour), End: monday.Add(19 * time.Hour),
		Status: model.StatusPlanned, Mini: true,
	}}
	goals := []model.Goal{{ID: "g1", Name: "Climb"}}

	out := ExportWeek(events, blocks, goals)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Contains(t, out, "SUMMARY:Climb (mini)")
	assert.Contains(t, out, "UID:b1")
}

func TestFetchAllUsesConditionalCache(t *testing.T) {
	const etag = `"v1"`
	body := string(calendar(
		"UID:dentist",
		"DTSTAMP:20260301T000000Z",
		"DTSTART:20260303T140000Z",
		"DTEND:20260303T150000Z",
		"SUMMARY:Dentist",
	))

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	src := []Source{{ID: "feed", URL: srv.URL}}

	first, errs := f.FetchAll(t.Context(), src)
	require.Empty(t, errs)
	require.Len(t, first, 1)
	assert.False(t, first[0].FromCache)
	assert.Equal(t, body, string(first[0].Body))

	second, errs := f.FetchAll(t.Context(), src)
	require.Empty(t, errs)
	require.Len(t, second, 1)
	assert.True(t, second[0].FromCache)
	assert.Equal(t, body, string(second[0].Body))
	assert.Equal(t, 2, requests)
}
