// Package planner assigns activity-goal sessions into the free gaps of one
// week. It is a prioritized greedy placer: goals are processed high to low
// priority, each session takes the best-scoring eligible slot, and goals
// that cannot be fully satisfied are reported as conflicts rather than
// errors.
package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	applog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/slot"
)

// MiniSessionMinutes is the fixed duration of fallback sessions placed
// when a full session does not fit and the fallback mode is on.
const MiniSessionMinutes = 10

// Input is everything one scheduling run reads. A run never mutates its
// input and touches only the week containing Week.
type Input struct {
	// Week is any instant inside the target week; it is clamped to that
	// week's Monday 00:00.
	Week     time.Time
	Goals    []model.Goal
	Events   []model.Instance // week-expanded bookings
	Blocks   []model.Block    // previously planned, all weeks
	Settings model.Settings
	// MiniFallback enables 10-minute mini-sessions for sessions that do
	// not fit at full length.
	MiniFallback bool
}

// Options carries the injectable collaborators of a run. The zero value is
// usable: local timezone, random UUID block ids, no marker filter.
type Options struct {
	Location *time.Location
	// NewID mints block ids. Inject a deterministic generator to make
	// runs reproducible in tests.
	NewID func(goalID string, start time.Time) string
	// IsMarker recognizes peripheral marker events (such as week-number
	// banners) that must not block time.
	IsMarker func(model.Instance) bool
}

// Result is the output of one run: the full preserved+new block set and
// one conflict per goal that fell short.
type Result struct {
	Blocks    []model.Block
	Conflicts []model.Conflict
}

// Plan schedules one week. It is a pure function over its inputs; for
// structurally valid input it never fails. An unexpected fault is caught
// at this boundary and surfaced as a single synthetic conflict with the
// prior block state retained.
func Plan(in Input, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			applog.Error("planner: run failed", fmt.Errorf("%v", r))
			res = Result{
				Blocks: in.Blocks,
				Conflicts: []model.Conflict{{
					Reason:     fmt.Sprintf("scheduling failed: %v", r),
					Suggestion: "re-run after adjusting goals or settings",
				}},
			}
		}
	}()

	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.NewID == nil {
		opts.NewID = func(string, time.Time) string { return uuid.NewString() }
	}

	monday := model.WeekStart(in.Week, opts.Location)
	weekEnd := monday.AddDate(0, 0, 7)

	// Locked blocks inside the target week survive verbatim; unlocked
	// ones are regenerated. Blocks of other weeks are never touched.
	var preserved, lockedInWeek []model.Block
	for _, b := range in.Blocks {
		start := b.Start.In(opts.Location)
		inWeek := !start.Before(monday) && start.Before(weekEnd)
		if !inWeek {
			preserved = append(preserved, b)
			continue
		}
		if b.Locked {
			preserved = append(preserved, b)
			lockedInWeek = append(lockedInWeek, b)
		}
	}

	goalsByID := make(map[string]model.Goal, len(in.Goals))
	for _, g := range in.Goals {
		goalsByID[g.ID] = g
	}

	ws := buildWeek(monday, in, opts, lockedInWeek, goalsByID)

	var (
		newBlocks []model.Block
		conflicts []model.Conflict
	)
	for _, g := range sortGoals(in.Goals) {
		if g.Fixed || g.SessionMinutes <= 0 {
			continue
		}
		placed, required := scheduleGoal(ws, g, in.MiniFallback, opts, &newBlocks)
		if placed < required {
			conflicts = append(conflicts, model.Conflict{
				GoalID:     g.ID,
				Placed:     placed,
				Required:   required,
				Reason:     fmt.Sprintf("placed %d of %d sessions for %q", placed, required, g.Name),
				Suggestion: "shorten sessions, allow more days, or enable mini-sessions",
			})
		}
	}

	res.Blocks = append(preserved, newBlocks...)
	res.Conflicts = conflicts
	return res
}

// scheduleGoal places all required sessions for one goal and returns the
// placed and required counts.
func scheduleGoal(ws *weekState, g model.Goal, miniFallback bool, opts Options, out *[]model.Block) (placed, required int) {
	target := g.WeeklyTargetMinutes
	if g.MaxWeeklyMinutes > 0 && target > g.MaxWeeklyMinutes {
		target = g.MaxWeeklyMinutes
	}
	if target < g.MinWeeklyMinutes {
		target = g.MinWeeklyMinutes
	}
	if target < 1 {
		return 0, 0
	}

	required = g.SessionsPerWeek
	if required <= 0 {
		required = (target + g.SessionMinutes - 1) / g.SessionMinutes
	}

	// The last session shrinks whenever an even split would overshoot.
	lastMinutes := g.SessionMinutes
	if rem := target - (required-1)*g.SessionMinutes; rem > 0 && rem < g.SessionMinutes {
		lastMinutes = rem
	}

	for s := 0; s < required; s++ {
		minutes := g.SessionMinutes
		if s == required-1 {
			minutes = lastMinutes
		}
		if !placeSession(ws, g, minutes, false, opts, out) {
			break
		}
		placed++
	}

	if placed < required && miniFallback {
		for placed < required {
			if !placeSession(ws, g, MiniSessionMinutes, true, opts, out) {
				break
			}
			placed++
		}
	}
	return placed, required
}

// placeSession finds the best eligible slot across the week for one
// session and commits it. It returns false when no candidate exists, which
// ends placement for the goal at this duration.
func placeSession(ws *weekState, g model.Goal, minutes int, mini bool, opts Options, out *[]model.Block) bool {
	dur := time.Duration(minutes) * time.Minute
	need := dur + ws.minBreak

	perGoalCap := 0
	if g.Location == model.LocationGym || g.SessionsPerWeek > 0 {
		perGoalCap = 1
	}

	var (
		best      model.Interval
		bestDay   *dayState
		bestScore = -1
	)
	for _, day := range ws.days {
		if !g.AllowsDay(day.weekday) {
			continue
		}
		if ws.maxPerDay > 0 && day.placed >= ws.maxPerDay {
			continue
		}
		if perGoalCap > 0 && day.perGoal[g.ID] >= perGoalCap {
			continue
		}
		if g.Location == model.LocationGym && day.gym >= 1 {
			continue
		}

		window := goalWindow(g, day.date)
		for _, free := range slot.Free(day.bounds, day.blocked) {
			cand, ok := free.Clip(window)
			if !ok || cand.Duration() < need {
				continue
			}
			// Strict improvement keeps the earliest candidate on ties,
			// so placement order is deterministic scan order.
			if score := slotScore(g, cand, dur); score > bestScore {
				bestScore = score
				best = cand
				bestDay = day
			}
		}
	}

	if bestDay == nil {
		return false
	}

	start := best.Start
	end := start.Add(dur)
	block := model.Block{
		ID:     opts.NewID(g.ID, start),
		GoalID: g.ID,
		Start:  start,
		End:    end,
		Status: model.StatusPlanned,
		Mini:   mini,
	}
	*out = append(*out, block)

	bestDay.placed++
	bestDay.perGoal[g.ID]++
	if g.Location == model.LocationGym {
		bestDay.gym++
	}
	// Re-insert the placement extended by the break so later sessions of
	// any goal keep their distance.
	bestDay.blocked = append(bestDay.blocked, model.Interval{Start: start, End: end.Add(ws.minBreak)})
	return true
}
