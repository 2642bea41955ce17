// Package slot computes the free gaps of a bounded day under a set of
// blocked intervals.
package slot

import (
	"sort"

	"weekplan/internal/model"
)

// Free returns the maximal free sub-intervals of bounds not covered by any
// blocked interval, in chronological order. Blocked intervals may overlap
// each other and may extend outside bounds; a single cursor sweep merges
// them without a separate coalescing pass. Zero blocked intervals yield
// exactly one slot spanning bounds.
func Free(bounds model.Interval, blocked []model.Interval) []model.Interval {
	if !bounds.Valid() {
		return nil
	}

	sorted := make([]model.Interval, 0, len(blocked))
	for _, b := range blocked {
		if b.Valid() {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	free := make([]model.Interval, 0, len(sorted)+1)
	cursor := bounds.Start

	for _, b := range sorted {
		if !b.End.After(cursor) || !b.Start.Before(bounds.End) {
			continue
		}
		clipped, ok := b.Clip(bounds)
		if !ok {
			continue
		}
		if clipped.Start.After(cursor) {
			free = append(free, model.Interval{Start: cursor, End: clipped.Start})
		}
		if clipped.End.After(cursor) {
			cursor = clipped.End
		}
	}

	if cursor.Before(bounds.End) {
		free = append(free, model.Interval{Start: cursor, End: bounds.End})
	}
	return free
}
