// Package recur materializes weekly booking templates into concrete
// instances for one target week.
package recur

import (
	"time"

	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// ExpandWeek expands templates into the concrete instances overlapping
// [weekStart, weekStart+7d). weekStart may be any instant; it is clamped to
// its week's Monday 00:00 in loc first.
//
// Non-recurring templates pass through unchanged, filtered to those
// overlapping the window. Recurring templates yield one occurrence per
// valid recurrence weekday, minus exception dates. A recurring template
// whose weekday set produces nothing for this week contributes zero
// instances; that is deliberate, not a fallback to pass-through.
func ExpandWeek(templates []model.Template, weekStart time.Time, loc *time.Location) []model.Instance {
	if loc == nil {
		loc = time.Local
	}
	monday := model.WeekStart(weekStart, loc)
	window := model.Interval{Start: monday, End: monday.AddDate(0, 0, 7)}

	out := make([]model.Instance, 0, len(templates))
	for _, tpl := range templates {
		if tpl.Recurring() {
			out = append(out, expandRecurring(tpl, monday, window)...)
			continue
		}
		iv := model.Interval{Start: tpl.Start, End: tpl.End}
		if !iv.Valid() || !iv.Overlaps(window) {
			continue
		}
		out = append(out, model.Instance{
			ID:         tpl.ID,
			TemplateID: tpl.ID,
			DateKey:    model.DateKey(tpl.Start.In(loc)),
			Title:      tpl.Title,
			Start:      tpl.Start,
			End:        tpl.End,
			AllDay:     tpl.AllDay,
			Category:   tpl.Category,
			Source:     tpl.Source,
			Locked:     tpl.Locked,
		})
	}
	return out
}

// InstanceID derives the deterministic id of one occurrence from its parent
// template and local occurrence date. Repeated expansions of the same input
// must produce the same ids so downstream diffing/keying stays stable.
func InstanceID(templateID, dateKey string) string {
	return templateID + "@" + dateKey
}

func expandRecurring(tpl model.Template, monday time.Time, window model.Interval) []model.Instance {
	dur := tpl.End.Sub(tpl.Start)
	if dur <= 0 && !tpl.AllDay {
		return nil
	}

	exDates := make(map[string]bool, len(tpl.ExDates))
	for _, k := range tpl.ExDates {
		exDates[k] = true
	}

	var out []model.Instance
	seen := make(map[time.Weekday]bool, len(tpl.Days))

	for _, day := range tpl.Days {
		if day < time.Sunday || day > time.Saturday || seen[day] {
			continue
		}
		seen[day] = true

		// Monday-first offset for the Sunday-first weekday index.
		offset := (int(day) + 6) % 7
		date := monday.AddDate(0, 0, offset)
		key := model.DateKey(date)
		if exDates[key] {
			applog.Debug("recur: exception date skipped", "template", tpl.ID, "date", key)
			continue
		}

		var start, end time.Time
		if tpl.AllDay {
			start = date
			end = date.AddDate(0, 0, 1)
		} else {
			start = model.CombineDate(date, tpl.Start)
			end = start.Add(dur)
		}

		occ := model.Interval{Start: start, End: end}
		// A template time-of-day can push a boundary occurrence outside
		// the target week; those never materialize.
		if !occ.Valid() || !occ.Overlaps(window) {
			continue
		}

		out = append(out, model.Instance{
			ID:         InstanceID(tpl.ID, key),
			TemplateID: tpl.ID,
			DateKey:    key,
			Title:      tpl.Title,
			Start:      start,
			End:        end,
			AllDay:     tpl.AllDay,
			Category:   tpl.Category,
			Source:     tpl.Source,
			Locked:     tpl.Locked,
		})
	}
	return out
}
