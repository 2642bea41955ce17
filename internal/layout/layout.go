// Package layout assigns non-overlapping rendering columns to simultaneous
// intervals and enforces the global concurrency cap used by the booking
// validator.
package layout

import (
	"sort"
	"time"

	"weekplan/internal/model"
)

// DefaultMaxColumns caps how many side-by-side columns a day view renders;
// items beyond the cap share the last column instead of being dropped.
const DefaultMaxColumns = 4

// Item is one laid-out interval, typically a booking or planned block
// within a single calendar day.
type Item struct {
	ID    string
	Start time.Time
	End   time.Time
}

func (it Item) interval() model.Interval {
	return model.Interval{Start: it.Start, End: it.End}
}

// ExceedsLimit reports whether at any instant more than limit items run
// concurrently. At equal boundary times end events are processed before
// start events, so an item ending exactly when another starts frees its
// capacity first; this realizes half-open interval semantics at the sweep
// level. It is the authoritative gate for booking create/edit/drag
// validation and for checking scheduler output.
func ExceedsLimit(items []Item, limit int) bool {
	if limit < 1 {
		return len(items) > 0
	}

	type boundary struct {
		at    time.Time
		delta int
	}
	bounds := make([]boundary, 0, len(items)*2)
	for _, it := range items {
		if !it.interval().Valid() {
			continue
		}
		bounds = append(bounds, boundary{at: it.Start, delta: +1})
		bounds = append(bounds, boundary{at: it.End, delta: -1})
	}
	sort.Slice(bounds, func(i, j int) bool {
		if !bounds[i].at.Equal(bounds[j].at) {
			return bounds[i].at.Before(bounds[j].at)
		}
		return bounds[i].delta < bounds[j].delta
	})

	running := 0
	for _, b := range bounds {
		running += b.delta
		if running > limit {
			return true
		}
	}
	return false
}

// Columns partitions items into overlap-connected groups and assigns each
// item a column within its group, capped at maxColumns. Touching items
// never share a group. The returned map is keyed by item ID; the Columns
// field of each entry is the group's rendered column count, so widths are
// stable at 1/Columns regardless of group size beyond the cap.
func Columns(items []Item, maxColumns int) map[string]model.Layout {
	if maxColumns < 1 {
		maxColumns = DefaultMaxColumns
	}

	valid := make([]Item, 0, len(items))
	for _, it := range items {
		if it.interval().Valid() {
			valid = append(valid, it)
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if !valid[i].Start.Equal(valid[j].Start) {
			return valid[i].Start.Before(valid[j].Start)
		}
		return valid[i].End.Before(valid[j].End)
	})

	out := make(map[string]model.Layout, len(valid))

	var group []Item
	var groupMaxEnd time.Time
	flush := func() {
		if len(group) > 0 {
			layoutGroup(group, maxColumns, out)
			group = group[:0]
		}
	}

	for _, it := range valid {
		// A start at or after the running max end closes the group:
		// half-open semantics, touching items never coexist.
		if len(group) > 0 && !it.Start.Before(groupMaxEnd) {
			flush()
		}
		group = append(group, it)
		if len(group) == 1 || it.End.After(groupMaxEnd) {
			groupMaxEnd = it.End
		}
	}
	flush()

	return out
}

// layoutGroup greedily assigns columns within one overlap group. Active
// (end, column) pairs are evicted once their end is at or before the next
// item's start; the smallest free column wins, capped at maxColumns-1.
func layoutGroup(group []Item, maxColumns int, out map[string]model.Layout) {
	type active struct {
		end time.Time
		col int
	}
	var actives []active
	cols := make(map[string]int, len(group))
	highest := 0

	for _, it := range group {
		kept := actives[:0]
		for _, a := range actives {
			if a.end.After(it.Start) {
				kept = append(kept, a)
			}
		}
		actives = kept

		used := make(map[int]bool, len(actives))
		for _, a := range actives {
			used[a.col] = true
		}
		col := 0
		for used[col] {
			col++
		}
		if col > maxColumns-1 {
			col = maxColumns - 1
		}

		actives = append(actives, active{end: it.End, col: col})
		cols[it.ID] = col
		if col > highest {
			highest = col
		}
	}

	columns := highest + 1
	if columns > maxColumns {
		columns = maxColumns
	}
	for id, col := range cols {
		out[id] = model.Layout{Column: col, Columns: columns}
	}
}
