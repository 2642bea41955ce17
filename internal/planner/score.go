package planner

import (
	"sort"
	"time"

	"weekplan/internal/model"
)

// Daypart bands by slot start hour. Morning and evening are each adjacent
// only to lunch; a start hour outside every band scores zero unless the
// goal accepts any time.
const (
	morningFrom = 5
	morningTo   = 11
	lunchFrom   = 11
	lunchTo     = 14
	eveningFrom = 17
	eveningTo   = 22
)

func bandOf(hour int) model.TimeOfDay {
	switch {
	case hour >= morningFrom && hour < morningTo:
		return model.TimeMorning
	case hour >= lunchFrom && hour < lunchTo:
		return model.TimeLunch
	case hour >= eveningFrom && hour < eveningTo:
		return model.TimeEvening
	default:
		return ""
	}
}

func adjacent(a, b model.TimeOfDay) bool {
	switch {
	case a == model.TimeMorning && b == model.TimeLunch,
		a == model.TimeLunch && b == model.TimeMorning,
		a == model.TimeLunch && b == model.TimeEvening,
		a == model.TimeEvening && b == model.TimeLunch:
		return true
	}
	return false
}

// slotScore ranks a candidate slot for a goal: a time-of-day component
// (10 exact band match, 5 adjacent band, 5 flat for "any") plus a fit
// component (10 when the slot holds the session).
func slotScore(g model.Goal, cand model.Interval, session time.Duration) int {
	score := 0

	switch pref := g.Preferred; {
	case pref == model.TimeAny || pref == "":
		score += 5
	default:
		band := bandOf(cand.Start.Hour())
		switch {
		case band == pref:
			score += 10
		case adjacent(pref, band):
			score += 5
		}
	}

	if cand.Duration() >= session {
		score += 10
	}
	return score
}

// sortGoals orders goals for placement: priority descending, then shorter
// sessions first. The sort is stable so equal goals keep input order.
func sortGoals(goals []model.Goal) []model.Goal {
	sorted := make([]model.Goal, len(goals))
	copy(sorted, goals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
		}
		return sorted[i].SessionMinutes < sorted[j].SessionMinutes
	})
	return sorted
}
