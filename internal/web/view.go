package web

import (
	"html/template"
	"net/http"
	"time"

	applog "weekplan/internal/log"
	"weekplan/internal/model"
)

// The /week view is intentionally dependency-free HTML: it is the capture
// target for the PNG snapshot, so it must render without client-side data
// fetching. data-ready signals the capturer that layout is complete.
var weekTmpl = template.Must(template.New("week").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>weekplan {{.WeekKey}}</title>
<style>
body { font-family: sans-serif; margin: 0; }
.grid { display: flex; height: 96vh; }
.day { flex: 1; border-left: 1px solid #ccc; position: relative; }
.day h2 { font-size: 12px; text-align: center; margin: 2px 0; }
.item { position: absolute; overflow: hidden; font-size: 10px;
        border: 1px solid #666; border-radius: 2px; padding: 1px;
        box-sizing: border-box; }
.event { background: #dde6f7; }
.block { background: #d9f2d9; }
.mini  { background: #fdf3d0; }
.conflicts { font-size: 11px; color: #a00; padding: 2px 6px; }
</style>
</head>
<body data-ready="true">
<div class="conflicts">{{range .Conflicts}}<span>{{.Reason}}</span> {{end}}</div>
<div class="grid">
{{range .Days}}<div class="day"><h2>{{.Label}}</h2>
{{range .Items}}<div class="item {{.Class}}" style="top:{{.Top}}%;height:{{.Height}}%;left:{{.Left}}%;width:{{.Width}}%">{{.Title}}</div>
{{end}}</div>
{{end}}</div>
</body>
</html>
`))

type viewItem struct {
	Title  string
	Class  string
	Top    float64
	Height float64
	Left   float64
	Width  float64
}

type viewDay struct {
	Label string
	Items []viewItem
}

type viewData struct {
	WeekKey   string
	Days      []viewDay
	Conflicts []model.Conflict
}

func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	monday := s.weekParam(r)
	week, err := s.cachedWeek(r.Context(), monday)
	if err != nil {
		applog.Error("week view failed", err)
		http.Error(w, "failed to compute plan", http.StatusInternalServerError)
		return
	}

	layouts := s.planner.LayoutWeek(week)
	goals, _ := s.planner.Goals()
	names := make(map[string]string, len(goals))
	for _, g := range goals {
		names[g.ID] = g.Name
	}

	loc := s.cfg.Location()
	data := viewData{WeekKey: model.DateKey(monday), Conflicts: week.Conflicts}

	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i)
		key := model.DateKey(date)
		day := viewDay{Label: date.Format("Mon 02 Jan")}
		dayLayout := layouts[key]

		place := func(id, title, class string, start, end time.Time) {
			if model.DateKey(start.In(loc)) != key {
				return
			}
			lay, ok := dayLayout[id]
			if !ok {
				lay = model.Layout{Column: 0, Columns: 1}
			}
			startMin := float64(start.In(loc).Hour()*60 + start.In(loc).Minute())
			dur := end.Sub(start).Minutes()
			width := 100.0 / float64(lay.Columns)
			day.Items = append(day.Items, viewItem{
				Title:  title,
				Class:  class,
				Top:    startMin / 1440 * 100,
				Height: dur / 1440 * 100,
				Left:   float64(lay.Column) * width,
				Width:  width,
			})
		}

		for _, ev := range week.Events {
			place(ev.ID, ev.Title, "event", ev.Start, ev.End)
		}
		for _, b := range week.Blocks {
			title := names[b.GoalID]
			class := "block"
			if b.Mini {
				class = "mini"
			}
			place(b.ID, title, class, b.Start, b.End)
		}
		data.Days = append(data.Days, day)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := weekTmpl.Execute(w, data); err != nil {
		applog.Error("week view render failed", err)
	}
}
