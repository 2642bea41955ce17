package model

import "time"

// Interval is an immutable half-open time range [Start, End).
// Producers must discard intervals with End <= Start; downstream code
// assumes every Interval it receives is valid.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an Interval and reports whether it is valid.
// Invalid ranges (End <= Start) are dropped at the point of construction.
func NewInterval(start, end time.Time) (Interval, bool) {
	iv := Interval{Start: start, End: end}
	return iv, iv.Valid()
}

// Valid reports whether the interval has positive length.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Duration returns the interval's length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals intersect.
// Touching intervals ([9,10) and [10,11)) never overlap. This predicate is
// the single overlap definition for the whole module; callers must not
// reimplement it.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && iv.End.After(o.Start)
}

// Contains reports whether t lies inside the half-open range.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Clip returns the intersection of iv with bounds, and whether the
// intersection is non-empty.
func (iv Interval) Clip(bounds Interval) (Interval, bool) {
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out, out.Valid()
}
