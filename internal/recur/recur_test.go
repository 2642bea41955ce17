package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weekplan/internal/model"
)

// Week of Monday 2026-03-02 in UTC.
var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func weeklyTemplate() model.Template {
	return model.Template{
		ID:    "yoga",
		Title: "Yoga",
		// Start/End carry only time-of-day and duration for recurring
		// templates; the date here is arbitrary.
		Start: time.Date(2026, time.January, 5, 7, 30, 0, 0, time.UTC),
		End:   time.Date(2026, time.January, 5, 8, 15, 0, 0, time.UTC),
		Days:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}
}

func TestExpandWeekRecurring(t *testing.T) {
	out := ExpandWeek([]model.Template{weeklyTemplate()}, monday, time.UTC)
	require.Len(t, out, 3)

	require.Equal(t, "yoga@2026-03-02", out[0].ID)
	require.Equal(t, time.Date(2026, time.March, 2, 7, 30, 0, 0, time.UTC), out[0].Start)
	require.Equal(t, time.Date(2026, time.March, 2, 8, 15, 0, 0, time.UTC), out[0].End)

	require.Equal(t, "yoga@2026-03-04", out[1].ID)
	require.Equal(t, "yoga@2026-03-06", out[2].ID)
	for _, inst := range out {
		require.Equal(t, "yoga", inst.TemplateID)
	}
}

func TestExpandWeekDeterministic(t *testing.T) {
	tpls := []model.Template{weeklyTemplate()}
	first := ExpandWeek(tpls, monday, time.UTC)
	second := ExpandWeek(tpls, monday, time.UTC)
	require.Equal(t, first, second)
}

func TestExpandWeekExceptionDate(t *testing.T) {
	tpl := weeklyTemplate()
	tpl.ExDates = []string{"2026-03-04"}
	out := ExpandWeek([]model.Template{tpl}, monday, time.UTC)
	require.Len(t, out, 2)
	require.Equal(t, "yoga@2026-03-02", out[0].ID)
	require.Equal(t, "yoga@2026-03-06", out[1].ID)
}

func TestExpandWeekClampsToMonday(t *testing.T) {
	thursday := monday.AddDate(0, 0, 3).Add(15 * time.Hour)
	out := ExpandWeek([]model.Template{weeklyTemplate()}, thursday, time.UTC)
	require.Len(t, out, 3)
	require.Equal(t, "yoga@2026-03-02", out[0].ID)
}

func TestExpandWeekDeduplicatesAndValidatesDays(t *testing.T) {
	tpl := weeklyTemplate()
	tpl.Days = []time.Weekday{time.Monday, time.Monday, time.Weekday(9), time.Weekday(-1)}
	out := ExpandWeek([]model.Template{tpl}, monday, time.UTC)
	require.Len(t, out, 1)
	require.Equal(t, "yoga@2026-03-02", out[0].ID)
}

func TestExpandWeekAllExcludedYieldsNothing(t *testing.T) {
	tpl := weeklyTemplate()
	tpl.ExDates = []string{"2026-03-02", "2026-03-04", "2026-03-06"}
	out := ExpandWeek([]model.Template{tpl}, monday, time.UTC)
	require.Empty(t, out)
}

func TestExpandWeekNonRecurringPassThrough(t *testing.T) {
	inWeek := model.Template{
		ID:    "dentist",
		Title: "Dentist",
		Start: monday.Add(34 * time.Hour),
		End:   monday.Add(35 * time.Hour),
	}
	otherWeek := model.Template{
		ID:    "later",
		Title: "Later",
		Start: monday.AddDate(0, 0, 10),
		End:   monday.AddDate(0, 0, 10).Add(time.Hour),
	}
	out := ExpandWeek([]model.Template{inWeek, otherWeek}, monday, time.UTC)
	require.Len(t, out, 1)
	require.Equal(t, "dentist", out[0].ID)
	require.Equal(t, inWeek.Start, out[0].Start)
}

func TestExpandWeekDiscardsInvalidNonRecurring(t *testing.T) {
	bad := model.Template{
		ID:    "bad",
		Title: "Bad",
		Start: monday.Add(10 * time.Hour),
		End:   monday.Add(9 * time.Hour),
	}
	out := ExpandWeek([]model.Template{bad}, monday, time.UTC)
	require.Empty(t, out)
}

func TestExpandWeekAllDayRecurring(t *testing.T) {
	tpl := model.Template{
		ID:     "offsite",
		Title:  "Offsite",
		AllDay: true,
		Start:  time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Days:   []time.Weekday{time.Tuesday},
	}
	out := ExpandWeek([]model.Template{tpl}, monday, time.UTC)
	require.Len(t, out, 1)
	require.Equal(t, monday.AddDate(0, 0, 1), out[0].Start)
	require.Equal(t, monday.AddDate(0, 0, 2), out[0].End)
}
