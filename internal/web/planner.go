package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weekplan/internal/config"
	"weekplan/internal/ics"
	"weekplan/internal/layout"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/planner"
	"weekplan/internal/recur"
	"weekplan/internal/store"
)

// ErrTooManyConcurrent is returned when a booking write would push some
// instant's concurrent-item count past the configured limit.
var ErrTooManyConcurrent = errors.New("booking overlaps too many existing items")

// Planner ties the store, the ICS importer and the week scheduler into the
// operations the HTTP layer and the refresh loop call.
type Planner struct {
	cfg     *config.Config
	st      *store.Store
	fetcher *ics.Fetcher
}

// WeekPlan is one computed week: the expanded bookings, the resulting
// blocks and any goals that fell short.
type WeekPlan struct {
	WeekStart time.Time        `json:"week_start"`
	Events    []model.Instance `json:"events"`
	Blocks    []model.Block    `json:"blocks"`
	Conflicts []model.Conflict `json:"conflicts"`
}

// NewPlanner constructs a Planner.
func NewPlanner(cfg *config.Config, st *store.Store, fetcher *ics.Fetcher) *Planner {
	return &Planner{cfg: cfg, st: st, fetcher: fetcher}
}

// weekEvents expands stored templates and imported busy calendars into the
// concrete instances of the week starting at monday.
func (p *Planner) weekEvents(ctx context.Context, st store.State, monday time.Time) []model.Instance {
	loc := p.cfg.Location()
	events := recur.ExpandWeek(st.Templates, monday, loc)

	sources := make([]ics.Source, 0, len(p.cfg.ICS))
	for _, src := range p.cfg.ICS {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			id = src.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}
	if len(sources) == 0 {
		return events
	}

	results, errs := p.fetcher.FetchAll(ctx, sources)
	if len(errs) > 0 {
		applog.Warn("some ICS sources failed", "errors", joinErrors(errs))
	}

	window := model.Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
	for _, res := range results {
		busy, err := ics.Parse(res.Source, res.Body)
		if err != nil {
			applog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		events = append(events, ics.Expand(busy, ics.ExpandConfig{
			Location: loc,
			Window:   window,
		})...)
	}
	return events
}

// PlanWeek computes the plan for the week of monday without persisting it.
func (p *Planner) PlanWeek(ctx context.Context, monday time.Time) (WeekPlan, error) {
	st, err := p.st.Load()
	if err != nil {
		return WeekPlan{}, fmt.Errorf("load state: %w", err)
	}

	loc := p.cfg.Location()
	monday = model.WeekStart(monday, loc)
	events := p.weekEvents(ctx, st, monday)

	res := planner.Plan(planner.Input{
		Week:         monday,
		Goals:        st.Goals,
		Events:       events,
		Blocks:       st.Blocks,
		Settings:     p.cfg.Scheduler,
		MiniFallback: p.cfg.MinimumViableDay,
	}, planner.Options{Location: loc})

	return WeekPlan{
		WeekStart: monday,
		Events:    events,
		Blocks:    res.Blocks,
		Conflicts: res.Conflicts,
	}, nil
}

// RefreshWeek recomputes the week of monday and persists the resulting
// block set.
func (p *Planner) RefreshWeek(ctx context.Context, monday time.Time) (WeekPlan, error) {
	week, err := p.PlanWeek(ctx, monday)
	if err != nil {
		return WeekPlan{}, err
	}
	_, err = p.st.Update(func(st *store.State) error {
		st.Blocks = week.Blocks
		return nil
	})
	if err != nil {
		return WeekPlan{}, fmt.Errorf("persist plan: %w", err)
	}
	return week, nil
}

// Goals returns the stored goals.
func (p *Planner) Goals() ([]model.Goal, error) {
	st, err := p.st.Load()
	if err != nil {
		return nil, err
	}
	return st.Goals, nil
}

// Templates returns the stored booking templates.
func (p *Planner) Templates() ([]model.Template, error) {
	st, err := p.st.Load()
	if err != nil {
		return nil, err
	}
	return st.Templates, nil
}

// UpsertGoal validates and stores a goal, assigning an id when missing.
func (p *Planner) UpsertGoal(g model.Goal) (model.Goal, error) {
	if g.Name == "" {
		return model.Goal{}, errors.New("goal name is required")
	}
	if g.SessionMinutes < 0 || g.WeeklyTargetMinutes < 0 {
		return model.Goal{}, errors.New("goal minutes must not be negative")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := p.st.Update(func(st *store.State) error {
		for i := range st.Goals {
			if st.Goals[i].ID == g.ID {
				st.Goals[i] = g
				return nil
			}
		}
		st.Goals = append(st.Goals, g)
		return nil
	})
	if err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

// UpsertTemplate validates and stores a booking template. Before writing,
// the affected week is re-expanded with the candidate in place and run
// through the concurrency check; exceeding the limit rejects the write.
func (p *Planner) UpsertTemplate(ctx context.Context, tpl model.Template) (model.Template, error) {
	if tpl.Title == "" {
		return model.Template{}, errors.New("booking title is required")
	}
	if !tpl.AllDay && !tpl.End.After(tpl.Start) {
		return model.Template{}, errors.New("booking end must be after start")
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}

	st, err := p.st.Load()
	if err != nil {
		return model.Template{}, err
	}

	loc := p.cfg.Location()
	// Recurring templates hit every week alike; validate against the
	// current week. Concrete bookings validate against their own week.
	anchor := time.Now().In(loc)
	if !tpl.Recurring() {
		anchor = tpl.Start.In(loc)
	}
	monday := model.WeekStart(anchor, loc)

	candidate := st
	candidate.Templates = replaceTemplate(st.Templates, tpl)
	events := p.weekEvents(ctx, candidate, monday)

	items := make([]layout.Item, 0, len(events)+len(candidate.Blocks))
	for _, ev := range events {
		items = append(items, layout.Item{ID: ev.ID, Start: ev.Start, End: ev.End})
	}
	weekEnd := monday.AddDate(0, 0, 7)
	for _, b := range candidate.Blocks {
		if !b.Start.Before(weekEnd) || !b.End.After(monday) {
			continue
		}
		items = append(items, layout.Item{ID: b.ID, Start: b.Start, End: b.End})
	}
	if layout.ExceedsLimit(items, p.cfg.MaxConcurrent) {
		return model.Template{}, ErrTooManyConcurrent
	}

	_, err = p.st.Update(func(st *store.State) error {
		st.Templates = replaceTemplate(st.Templates, tpl)
		return nil
	})
	if err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

func replaceTemplate(templates []model.Template, tpl model.Template) []model.Template {
	out := make([]model.Template, 0, len(templates)+1)
	replaced := false
	for _, t := range templates {
		if t.ID == tpl.ID {
			out = append(out, tpl)
			replaced = true
			continue
		}
		out = append(out, t)
	}
	if !replaced {
		out = append(out, tpl)
	}
	return out
}

// LayoutWeek assigns rendering columns per day for everything in the week:
// imported and native bookings plus planned blocks, keyed by local date.
func (p *Planner) LayoutWeek(week WeekPlan) map[string]map[string]model.Layout {
	byDay := make(map[string][]layout.Item)
	add := func(id string, start, end time.Time) {
		key := model.DateKey(start.In(p.cfg.Location()))
		byDay[key] = append(byDay[key], layout.Item{ID: id, Start: start, End: end})
	}
	for _, ev := range week.Events {
		add(ev.ID, ev.Start, ev.End)
	}
	for _, b := range week.Blocks {
		add(b.ID, b.Start, b.End)
	}

	out := make(map[string]map[string]model.Layout, len(byDay))
	for key, items := range byDay {
		out[key] = layout.Columns(items, p.cfg.MaxColumns)
	}
	return out
}
