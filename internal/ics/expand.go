package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// defaultMaxOccurrences caps per-event expansion so a pathological RRULE
// cannot blow up a planning run.
const defaultMaxOccurrences = 1000

// ExpandConfig controls busy-event expansion.
type ExpandConfig struct {
	// Location is the timezone occurrences are normalized into. If nil,
	// time.Local is used.
	Location *time.Location

	// Window is the half-open range occurrences must overlap, typically
	// the planner's target week.
	Window model.Interval

	// MaxOccurrencesPerEvent overrides defaultMaxOccurrences when positive.
	MaxOccurrencesPerEvent int
}

// Expand materializes busy events into concrete instances overlapping the
// window, handling single events, RRULE recurrence, EXDATE removal and
// all-day semantics. The result feeds the planner's blocked time.
func Expand(events []BusyEvent, cfg ExpandConfig) []model.Instance {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrences
	}
	if !cfg.Window.Valid() {
		return nil
	}

	out := make([]model.Instance, 0, len(events))
	for _, ev := range events {
		if ev.RawRRule == "" {
			if inst, ok := makeInstance(ev, ev.Start, ev.End, cfg.Location, cfg.Window); ok {
				out = append(out, inst)
			}
			continue
		}
		out = append(out, expandRecurring(ev, cfg)...)
	}
	return out
}

func expandRecurring(ev BusyEvent, cfg ExpandConfig) []model.Instance {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		applog.Warn("ics expand: bad RRULE skipped", "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between works in the event's own location; shift the window there.
	rangeStart := cfg.Window.Start.In(ev.Start.Location())
	rangeEnd := cfg.Window.End.In(ev.Start.Location())
	starts := set.Between(rangeStart, rangeEnd, true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		applog.Warn("ics expand: occurrence cap hit", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.Instance, 0, len(starts))
	for _, occStart := range starts {
		var occEnd time.Time
		if ev.AllDay {
			day := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = day
			occEnd = day.AddDate(0, 0, 1)
		} else {
			occEnd = occStart.Add(dur)
		}
		if inst, ok := makeInstance(ev, occStart, occEnd, cfg.Location, cfg.Window); ok {
			out = append(out, inst)
		}
	}
	return out
}

// makeInstance normalizes one occurrence into the display location and
// keys it deterministically by UID and local date.
func makeInstance(ev BusyEvent, start, end time.Time, loc *time.Location, window model.Interval) (model.Instance, bool) {
	startLocal := start.In(loc)
	endLocal := end.In(loc)

	iv, ok := model.NewInterval(startLocal, endLocal)
	if !ok || !iv.Overlaps(window) {
		return model.Instance{}, false
	}

	key := model.DateKey(startLocal)
	return model.Instance{
		ID:         ev.UID + "@" + key,
		TemplateID: ev.UID,
		DateKey:    key,
		Title:      ev.Summary,
		Start:      startLocal,
		End:        endLocal,
		AllDay:     ev.AllDay,
		Category:   "imported",
		Source:     ev.Source.ID,
		Locked:     true,
	}, true
}
