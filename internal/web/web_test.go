package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/config"
	"weekplan/internal/ics"
	"weekplan/internal/model"
	"weekplan/internal/store"
)

var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func testPlanner(t *testing.T) (*Planner, *config.Config, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.StatePath = filepath.Join(dir, "state.yaml")
	cfg.MaxConcurrent = 2
	cfg.ICS = nil
	cfg.Normalize()

	st, err := store.New(cfg.StatePath)
	require.NoError(t, err)

	return NewPlanner(cfg, st, ics.NewFetcher(filepath.Join(dir, "cache"))), cfg, st
}

func concrete(id string, start, end time.Time) model.Template {
	return model.Template{ID: id, Title: id, Start: start, End: end}
}

func TestUpsertTemplateConcurrencyGate(t *testing.T) {
	p, _, _ := testPlanner(t)
	ctx := t.Context()

	at := func(h int) time.Time { return monday.Add(time.Duration(h) * time.Hour) }

	_, err := p.UpsertTemplate(ctx, concrete("a", at(9), at(11)))
	require.NoError(t, err)
	_, err = p.UpsertTemplate(ctx, concrete("b", at(10), at(12)))
	require.NoError(t, err)

	// A third simultaneous booking passes the limit of 2.
	_, err = p.UpsertTemplate(ctx, concrete("c", at(10), at(11)))
	require.ErrorIs(t, err, ErrTooManyConcurrent)

	// Touching the busiest instant's end is fine.
	_, err = p.UpsertTemplate(ctx, concrete("d", at(12), at(13)))
	require.NoError(t, err)

	templates, err := p.Templates()
	require.NoError(t, err)
	assert.Len(t, templates, 3)
}

func TestUpsertTemplateValidation(t *testing.T) {
	p, _, _ := testPlanner(t)
	ctx := t.Context()

	_, err := p.UpsertTemplate(ctx, model.Template{Title: ""})
	require.Error(t, err)

	_, err = p.UpsertTemplate(ctx, concrete("x", monday.Add(2*time.Hour), monday.Add(time.Hour)))
	require.Error(t, err)

	saved, err := p.UpsertTemplate(ctx, model.Template{Title: "auto-id", Start: monday, End: monday.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
}

func TestPlanWeekSchedulesGoals(t *testing.T) {
	p, _, st := testPlanner(t)

	_, err := st.Update(func(s *store.State) error {
		s.Goals = []model.Goal{{
			ID: "g1", Name: "Run",
			WeeklyTargetMinutes: 60, SessionMinutes: 30,
			Priority: model.PriorityHigh,
		}}
		return nil
	})
	require.NoError(t, err)

	week, err := p.PlanWeek(t.Context(), monday)
	require.NoError(t, err)
	assert.True(t, week.WeekStart.Equal(monday))
	assert.Len(t, week.Blocks, 2)
	assert.Empty(t, week.Conflicts)

	// PlanWeek must not persist; RefreshWeek must.
	loaded, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Blocks)

	_, err = p.RefreshWeek(t.Context(), monday)
	require.NoError(t, err)
	loaded, err = st.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Blocks, 2)
}

func TestLayoutWeekGroupsByDay(t *testing.T) {
	p, _, _ := testPlanner(t)

	week := WeekPlan{
		WeekStart: monday,
		Events: []model.Instance{
			{ID: "e1", Start: monday.Add(9 * time.Hour), End: monday.Add(11 * time.Hour)},
			{ID: "e2", Start: monday.Add(10 * time.Hour), End: monday.Add(12 * time.Hour)},
		},
		Blocks: []model.Block{
			{ID: "b1", Start: monday.AddDate(0, 0, 1).Add(9 * time.Hour), End: monday.AddDate(0, 0, 1).Add(10 * time.Hour)},
		},
	}
	out := p.LayoutWeek(week)

	mondayKey := model.DateKey(monday)
	tuesdayKey := model.DateKey(monday.AddDate(0, 0, 1))
	require.Contains(t, out, mondayKey)
	require.Contains(t, out, tuesdayKey)
	assert.Equal(t, 2, out[mondayKey]["e1"].Columns)
	assert.NotEqual(t, out[mondayKey]["e1"].Column, out[mondayKey]["e2"].Column)
	assert.Equal(t, 1, out[tuesdayKey]["b1"].Columns)
}

func TestServerEndpointsAndBasicAuth(t *testing.T) {
	p, cfg, _ := testPlanner(t)
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}

	srv := httptest.NewServer(NewServer(cfg, p).Handler())
	defer srv.Close()

	// /health stays open.
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Everything else requires credentials.
	resp, err = http.Get(srv.URL + "/api/plan")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/plan", nil)
	require.NoError(t, err)
	req.SetBasicAuth("u", "p")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var week WeekPlan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&week))
	assert.Equal(t, time.Monday, week.WeekStart.Weekday())
}
