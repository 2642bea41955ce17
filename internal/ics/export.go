package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"weekplan/internal/model"
)

// ExportWeek serializes a planned week (bookings plus placed blocks) as an
// ICS calendar, so the plan can be loaded into any regular calendar app.
// Goal names label the blocks; unknown goal ids fall back to the block id.
func ExportWeek(events []model.Instance, blocks []model.Block, goals []model.Goal) string {
	names := make(map[string]string, len(goals))
	for _, g := range goals {
		names[g.ID] = g.Name
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//weekplan//EN")

	now := time.Now().UTC()

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		if ev.AllDay {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End)
		} else {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
		}
	}

	for _, b := range blocks {
		ve := cal.AddEvent(b.ID)
		ve.SetDtStampTime(now)
		title := names[b.GoalID]
		if title == "" {
			title = b.ID
		}
		if b.Mini {
			title += " (mini)"
		}
		ve.SetSummary(title)
		ve.SetStartAt(b.Start)
		ve.SetEndAt(b.End)
	}

	return cal.Serialize()
}
