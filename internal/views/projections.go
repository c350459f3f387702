package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
)

type View string

const (
	ViewList      View = "list"
	ViewKanban    View = "kanban"
	ViewCalendar  View = "calendar"
	ViewTimeline  View = "timeline"
	ViewMatrix    View = "matrix"
	ViewDashboard View = "dashboard"
)

var AllViews = []View{ViewList, ViewKanban, ViewCalendar, ViewTimeline, ViewMatrix, ViewDashboard}

func ParseView(name string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllViews {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("views: unknown view %q", name)
}

// Group is a named slice of tasks that keeps the input order.
type Group struct {
	Key   string       `json:"key"`
	Title string       `json:"title"`
	Tasks []model.Task `json:"tasks"`
}

type Kanban struct {
	Columns []Group `json:"columns"`
}

// BuildKanban splits tasks into To Do, Done and Not Needed columns.
// Archived tasks have no column.
func BuildKanban(tasks []model.Task) Kanban {
	columns := []Group{
		{Key: string(model.StatusPending), Title: "To Do", Tasks: []model.Task{}},
		{Key: string(model.StatusDone), Title: "Done", Tasks: []model.Task{}},
		{Key: string(model.StatusNotNeeded), Title: "Not Needed", Tasks: []model.Task{}},
	}
	for _, t := range tasks {
		for i := range columns {
			if columns[i].Key == string(t.Status) {
				columns[i].Tasks = append(columns[i].Tasks, t)
			}
		}
	}
	return Kanban{Columns: columns}
}

type CalendarDay struct {
	Date        string         `json:"date"`
	TopPriority model.Priority `json:"topPriority"`
	Tasks       []model.Task   `json:"tasks"`
}

type Calendar struct {
	Month string        `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// BuildCalendar lists the days of month holding open tasks, with the highest
// priority of each day. Done and not needed tasks are left out.
func BuildCalendar(tasks []model.Task, month time.Time, loc *time.Location) Calendar {
	loc = orLocal(loc)
	month = month.In(loc)
	y, m, _ := month.Date()
	byDay := make(map[string]*CalendarDay)
	keys := make([]string, 0)
	for _, t := range tasks {
		if t.Status == model.StatusDone || t.Status == model.StatusNotNeeded || t.Status == model.StatusArchived {
			continue
		}
		d := t.Deadline.In(loc)
		if dy, dm, _ := d.Date(); dy != y || dm != m {
			continue
		}
		key := d.Format(model.DateLayout)
		day, ok := byDay[key]
		if !ok {
			day = &CalendarDay{Date: key, TopPriority: t.Priority, Tasks: []model.Task{}}
			byDay[key] = day
			keys = append(keys, key)
		}
		if t.Priority.Rank() > day.TopPriority.Rank() {
			day.TopPriority = t.Priority
		}
		day.Tasks = append(day.Tasks, t)
	}
	sort.Strings(keys)
	out := Calendar{Month: month.Format("2006-01"), Days: make([]CalendarDay, 0, len(keys))}
	for _, k := range keys {
		out.Days = append(out.Days, *byDay[k])
	}
	return out
}

type Timeline struct {
	Buckets []Group `json:"buckets"`
}

// BuildTimeline buckets pending tasks relative to now: overdue, today,
// tomorrow, this week (within seven days) and later.
func BuildTimeline(tasks []model.Task, now time.Time, loc *time.Location) Timeline {
	loc = orLocal(loc)
	now = now.In(loc)
	today := now.Format(model.DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(model.DateLayout)
	nextWeek := now.AddDate(0, 0, 7)

	buckets := []Group{
		{Key: "overdue", Title: "Overdue", Tasks: []model.Task{}},
		{Key: "today", Title: "Today", Tasks: []model.Task{}},
		{Key: "tomorrow", Title: "Tomorrow", Tasks: []model.Task{}},
		{Key: "this_week", Title: "This Week", Tasks: []model.Task{}},
		{Key: "later", Title: "Later", Tasks: []model.Task{}},
	}
	for _, t := range tasks {
		if t.Status != model.StatusPending || t.IsSnoozed(now) {
			continue
		}
		d := t.Deadline.In(loc)
		day := d.Format(model.DateLayout)
		idx := 4
		switch {
		case day == today:
			idx = 1
		case d.Before(now):
			idx = 0
		case day == tomorrow:
			idx = 2
		case !d.After(nextWeek):
			idx = 3
		}
		buckets[idx].Tasks = append(buckets[idx].Tasks, t)
	}
	return Timeline{Buckets: buckets}
}

type Matrix struct {
	Quadrants []Group `json:"quadrants"`
}

// BuildMatrix places pending tasks on the urgent/important grid. Urgent means
// due within 24 hours of now; important means high priority.
func BuildMatrix(tasks []model.Task, now time.Time) Matrix {
	threshold := now.Add(24 * time.Hour)
	quadrants := []Group{
		{Key: "do_first", Title: "Do First", Tasks: []model.Task{}},
		{Key: "schedule", Title: "Schedule", Tasks: []model.Task{}},
		{Key: "delegate", Title: "Delegate", Tasks: []model.Task{}},
		{Key: "eliminate", Title: "Eliminate", Tasks: []model.Task{}},
	}
	for _, t := range tasks {
		if t.Status != model.StatusPending || t.IsSnoozed(now) {
			continue
		}
		urgent := !t.Deadline.After(threshold)
		important := t.Priority == model.PriorityHigh
		idx := 3
		switch {
		case important && urgent:
			idx = 0
		case important:
			idx = 1
		case urgent:
			idx = 2
		}
		quadrants[idx].Tasks = append(quadrants[idx].Tasks, t)
	}
	return Matrix{Quadrants: quadrants}
}

type Dashboard struct {
	Total             int             `json:"total"`
	ByStatus          map[string]int  `json:"byStatus"`
	PendingByPriority map[string]int  `json:"pendingByPriority"`
	Overdue           int             `json:"overdue"`
	DueToday          int             `json:"dueToday"`
	Stats             model.UserStats `json:"stats"`
}

func BuildDashboard(tasks []model.Task, stats model.UserStats, now time.Time, loc *time.Location) Dashboard {
	loc = orLocal(loc)
	today := now.In(loc).Format(model.DateLayout)
	out := Dashboard{
		Total: len(tasks),
		ByStatus: map[string]int{
			string(model.StatusPending):   0,
			string(model.StatusDone):      0,
			string(model.StatusNotNeeded): 0,
			string(model.StatusArchived):  0,
		},
		PendingByPriority: map[string]int{
			string(model.PriorityHigh):   0,
			string(model.PriorityMedium): 0,
			string(model.PriorityLow):    0,
		},
		Stats: stats,
	}
	for _, t := range tasks {
		out.ByStatus[string(t.Status)]++
		if t.Status != model.StatusPending {
			continue
		}
		out.PendingByPriority[string(t.Priority)]++
		if t.Deadline.Before(now) {
			out.Overdue++
		}
		if t.Deadline.In(loc).Format(model.DateLayout) == today {
			out.DueToday++
		}
	}
	return out
}

// Options carries the inputs shared by every projection.
type Options struct {
	Now      time.Time
	Location *time.Location
	Month    time.Time
	Stats    model.UserStats
}

// Build projects tasks, already in sort order, into the named view.
func Build(view View, tasks []model.Task, opts Options) (any, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Month.IsZero() {
		opts.Month = opts.Now
	}
	switch view {
	case ViewList:
		return tasks, nil
	case ViewKanban:
		return BuildKanban(tasks), nil
	case ViewCalendar:
		return BuildCalendar(tasks, opts.Month, opts.Location), nil
	case ViewTimeline:
		return BuildTimeline(tasks, opts.Now, opts.Location), nil
	case ViewMatrix:
		return BuildMatrix(tasks, opts.Now), nil
	case ViewDashboard:
		return BuildDashboard(tasks, opts.Stats, opts.Now, opts.Location), nil
	default:
		return nil, fmt.Errorf("views: unknown view %q", view)
	}
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
