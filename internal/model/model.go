package model

import "time"

// Template represents a stored booking definition before recurrence
// expansion. A template with a non-empty Days set is a recurring parent:
// its Start/End supply only a time-of-day and a duration, not a concrete
// date. Non-recurring templates are concrete events as-is.
type Template struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	Start  time.Time `yaml:"start" json:"start"`
	End    time.Time `yaml:"end" json:"end"`
	AllDay bool      `yaml:"all_day,omitempty" json:"all_day,omitempty"`

	// Days holds the recurrence weekdays (time.Weekday, Sunday=0).
	Days []time.Weekday `yaml:"days,omitempty" json:"days,omitempty"`
	// ExDates holds local date keys (yyyy-MM-dd) of skipped occurrences.
	ExDates []string `yaml:"ex_dates,omitempty" json:"ex_dates,omitempty"`

	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Source   string `yaml:"source,omitempty" json:"source,omitempty"`
	Locked   bool   `yaml:"locked,omitempty" json:"locked,omitempty"`
}

// Recurring reports whether the template repeats weekly.
func (t Template) Recurring() bool {
	return len(t.Days) > 0
}

// Instance is one materialized occurrence of a Template for a concrete
// week. Instances exist only transiently between expansion and
// scheduling/rendering; they are never persisted.
type Instance struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	// DateKey is the occurrence's local date (yyyy-MM-dd).
	DateKey string `json:"date_key"`

	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`

	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
}

// Interval returns the occurrence's time range.
func (in Instance) Interval() Interval {
	return Interval{Start: in.Start, End: in.End}
}

// Priority orders goals during scheduling.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank maps a priority to a sortable weight; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// TimeOfDay is a goal's preferred daypart.
type TimeOfDay string

const (
	TimeAny     TimeOfDay = "any"
	TimeMorning TimeOfDay = "morning"
	TimeLunch   TimeOfDay = "lunch"
	TimeEvening TimeOfDay = "evening"
)

// Location is where a goal's sessions take place. Gym-located goals are
// subject to a cross-goal one-per-day cap.
type Location string

const (
	LocationAny    Location = "any"
	LocationHome   Location = "home"
	LocationGym    Location = "gym"
	LocationOffice Location = "office"
)

// Goal is a recurring activity target the scheduler tries to satisfy each
// week. Goals are immutable during one scheduling run.
type Goal struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`

	WeeklyTargetMinutes int `yaml:"weekly_target_minutes" json:"weekly_target_minutes"`
	SessionMinutes      int `yaml:"session_minutes" json:"session_minutes"`
	MinWeeklyMinutes    int `yaml:"min_weekly_minutes,omitempty" json:"min_weekly_minutes,omitempty"`
	// MaxWeeklyMinutes caps the weekly target; zero means uncapped.
	MaxWeeklyMinutes int `yaml:"max_weekly_minutes,omitempty" json:"max_weekly_minutes,omitempty"`
	// SessionsPerWeek, when positive, overrides the target/session split
	// and limits the goal to one session per day.
	SessionsPerWeek int `yaml:"sessions_per_week,omitempty" json:"sessions_per_week,omitempty"`

	Priority Priority `yaml:"priority" json:"priority"`

	// AllowedDays restricts placement weekdays; empty allows every day.
	AllowedDays []time.Weekday `yaml:"allowed_days,omitempty" json:"allowed_days,omitempty"`
	// EarliestStart/LatestEnd frame the daily placement window as HH:mm
	// clock strings. LatestEnd <= EarliestStart means the window wraps
	// past midnight.
	EarliestStart string `yaml:"earliest_start,omitempty" json:"earliest_start,omitempty"`
	LatestEnd     string `yaml:"latest_end,omitempty" json:"latest_end,omitempty"`

	Preferred TimeOfDay `yaml:"preferred,omitempty" json:"preferred,omitempty"`
	Location  Location  `yaml:"location,omitempty" json:"location,omitempty"`

	TravelBufferMinutes int `yaml:"travel_buffer_minutes,omitempty" json:"travel_buffer_minutes,omitempty"`

	// Fixed goals are never auto-placed.
	Fixed bool   `yaml:"fixed,omitempty" json:"fixed,omitempty"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// AllowsDay reports whether sessions may be placed on the given weekday.
func (g Goal) AllowsDay(day time.Weekday) bool {
	if len(g.AllowedDays) == 0 {
		return true
	}
	for _, d := range g.AllowedDays {
		if d == day {
			return true
		}
	}
	return false
}

// BlockStatus is the lifecycle state of a planned block.
type BlockStatus string

const (
	StatusPlanned BlockStatus = "planned"
	StatusDone    BlockStatus = "done"
	StatusMissed  BlockStatus = "missed"
	StatusPartial BlockStatus = "partial"
)

// Block is one concrete scheduled session of a goal. The scheduler emits
// new blocks unlocked; users may pin a block, which preserves it verbatim
// across re-runs of its week.
type Block struct {
	ID     string `yaml:"id" json:"id"`
	GoalID string `yaml:"goal_id" json:"goal_id"`

	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`

	Status BlockStatus `yaml:"status" json:"status"`
	Locked bool        `yaml:"locked,omitempty" json:"locked,omitempty"`
	// Mini marks a 10-minute fallback session placed when a full session
	// did not fit.
	Mini bool `yaml:"mini,omitempty" json:"mini,omitempty"`
}

// Interval returns the block's time range.
func (b Block) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// DayWindow is a clock-time window applied on a set of weekdays. A window
// whose End is at or before its Start crosses midnight and spills into the
// following day.
type DayWindow struct {
	Start   string         `yaml:"start" json:"start"`
	End     string         `yaml:"end" json:"end"`
	Days    []time.Weekday `yaml:"days,omitempty" json:"days,omitempty"`
	Enabled bool           `yaml:"enabled" json:"enabled"`
}

// AppliesOn reports whether the window is active on the given weekday.
// An empty Days set applies to every day.
func (w DayWindow) AppliesOn(day time.Weekday) bool {
	if len(w.Days) == 0 {
		return true
	}
	for _, d := range w.Days {
		if d == day {
			return true
		}
	}
	return false
}

// CrossesMidnight reports whether the window's nominal end precedes or
// equals its start on the clock.
func (w DayWindow) CrossesMidnight() bool {
	sh, sm, serr := ParseClock(w.Start)
	eh, em, eerr := ParseClock(w.End)
	if serr != nil || eerr != nil {
		return false
	}
	return eh*60+em <= sh*60+sm
}

// Settings carries the scheduler's per-user configuration for one run.
type Settings struct {
	// WorkHours, when enabled, frames slot search to the window on its
	// weekdays; otherwise the full calendar day is searched.
	WorkHours DayWindow `yaml:"work_hours" json:"work_hours"`
	// Sleep is blocked time; it may cross midnight.
	Sleep DayWindow `yaml:"sleep" json:"sleep"`

	MinBreakMinutes     int `yaml:"min_break_minutes" json:"min_break_minutes"`
	MaxActivitiesPerDay int `yaml:"max_activities_per_day" json:"max_activities_per_day"`
}

// Conflict reports a goal whose weekly requirement could not be fully
// placed. It is an expected outcome, not an error.
type Conflict struct {
	GoalID     string `json:"goal_id"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
	Placed     int    `json:"placed"`
	Required   int    `json:"required"`
}

// Layout is the rendering assignment for one interval: its column index
// and the column count of its overlap group.
type Layout struct {
	Column  int `json:"column"`
	Columns int `json:"columns"`
}
