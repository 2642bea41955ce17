package planner

import (
	"time"

	"weekplan/internal/model"
)

// dayState accumulates one day's search frame and placement counters.
// Counters travel in this struct rather than closures so the placement
// loop can be tested apart from the blocked-interval builder.
type dayState struct {
	date    time.Time // local midnight
	weekday time.Weekday
	bounds  model.Interval
	blocked []model.Interval

	placed  int // sessions on this day, locked blocks included
	gym     int // gym-located sessions, counted across all goals
	perGoal map[string]int
}

type weekState struct {
	monday time.Time
	days   [7]*dayState

	minBreak  time.Duration
	maxPerDay int // 0 = unlimited
}

// buildWeek assembles per-day bounds and blocked intervals for the target
// week: sleep windows (spilling across midnight from the previous day),
// calendar events minus marker events, and locked blocks each trailed by
// their goal's travel buffer.
func buildWeek(monday time.Time, in Input, opts Options, lockedInWeek []model.Block, goals map[string]model.Goal) *weekState {
	ws := &weekState{
		monday:    monday,
		minBreak:  time.Duration(in.Settings.MinBreakMinutes) * time.Minute,
		maxPerDay: in.Settings.MaxActivitiesPerDay,
	}

	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i)
		ws.days[i] = &dayState{
			date:    date,
			weekday: date.Weekday(),
			bounds:  dayBounds(date, in.Settings.WorkHours),
			perGoal: make(map[string]int),
		}
	}

	var blocked []model.Interval

	// Sleep. Iterate from the day before Monday so a window crossing
	// midnight on Sunday still blocks Monday morning.
	sleep := in.Settings.Sleep
	if sleep.Enabled {
		sh, sm, serr := model.ParseClock(sleep.Start)
		eh, em, eerr := model.ParseClock(sleep.End)
		if serr == nil && eerr == nil {
			crosses := sleep.CrossesMidnight()
			for i := -1; i < 7; i++ {
				date := monday.AddDate(0, 0, i)
				if !sleep.AppliesOn(date.Weekday()) {
					continue
				}
				start := model.AtClock(date, sh, sm)
				end := model.AtClock(date, eh, em)
				if crosses {
					end = end.AddDate(0, 0, 1)
				}
				if iv, ok := model.NewInterval(start, end); ok {
					blocked = append(blocked, iv)
				}
			}
		}
	}

	// Calendar events, already expanded for this week.
	for _, ev := range in.Events {
		if opts.IsMarker != nil && opts.IsMarker(ev) {
			continue
		}
		if iv, ok := model.NewInterval(ev.Start, ev.End); ok {
			blocked = append(blocked, iv)
		}
	}

	// Locked blocks plus a synthetic travel buffer right after each.
	for _, b := range lockedInWeek {
		iv, ok := model.NewInterval(b.Start, b.End)
		if !ok {
			continue
		}
		blocked = append(blocked, iv)
		if g, found := goals[b.GoalID]; found && g.TravelBufferMinutes > 0 {
			buffer := model.Interval{
				Start: b.End,
				End:   b.End.Add(time.Duration(g.TravelBufferMinutes) * time.Minute),
			}
			blocked = append(blocked, buffer)
		}
	}

	// Distribute onto days and seed counters with locked blocks.
	for _, day := range ws.days {
		dayIv := model.Interval{Start: day.date, End: day.date.AddDate(0, 0, 1)}
		for _, iv := range blocked {
			if iv.Overlaps(dayIv) {
				day.blocked = append(day.blocked, iv)
			}
		}
	}
	for _, b := range lockedInWeek {
		day := ws.dayFor(b.Start)
		if day == nil {
			continue
		}
		day.placed++
		day.perGoal[b.GoalID]++
		if g, found := goals[b.GoalID]; found && g.Location == model.LocationGym {
			day.gym++
		}
	}

	return ws
}

func (ws *weekState) dayFor(t time.Time) *dayState {
	for _, day := range ws.days {
		if !t.Before(day.date) && t.Before(day.date.AddDate(0, 0, 1)) {
			return day
		}
	}
	return nil
}

// dayBounds returns the slot-search frame for one day: the work-hours
// window when it is enabled and applies to the weekday, otherwise the full
// calendar day.
func dayBounds(date time.Time, work model.DayWindow) model.Interval {
	full := model.Interval{Start: date, End: date.AddDate(0, 0, 1)}
	if !work.Enabled || !work.AppliesOn(date.Weekday()) {
		return full
	}
	sh, sm, serr := model.ParseClock(work.Start)
	eh, em, eerr := model.ParseClock(work.End)
	if serr != nil || eerr != nil {
		return full
	}
	iv, ok := model.NewInterval(model.AtClock(date, sh, sm), model.AtClock(date, eh, em))
	if !ok {
		return full
	}
	return iv
}

// goalWindow returns the goal's daily placement window anchored on day.
// A window whose latest end is at or before its earliest start wraps past
// midnight, extending the upper bound 24 hours.
func goalWindow(g model.Goal, date time.Time) model.Interval {
	full := model.Interval{Start: date, End: date.AddDate(0, 0, 1)}
	if g.EarliestStart == "" || g.LatestEnd == "" {
		return full
	}
	sh, sm, serr := model.ParseClock(g.EarliestStart)
	eh, em, eerr := model.ParseClock(g.LatestEnd)
	if serr != nil || eerr != nil {
		return full
	}
	start := model.AtClock(date, sh, sm)
	end := model.AtClock(date, eh, em)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return model.Interval{Start: start, End: end}
}
