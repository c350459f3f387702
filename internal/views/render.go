package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/contravault/internal/model"
)

const displayTimeLayout = "2006-01-02 15:04"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

// Render draws a projection returned by Build for the terminal.
func Render(view View, projection any, loc *time.Location) string {
	loc = orLocal(loc)
	switch p := projection.(type) {
	case []model.Task:
		return RenderList(p, loc)
	case Kanban:
		return RenderKanban(p, loc)
	case Calendar:
		return RenderCalendar(p, loc)
	case Timeline:
		return RenderTimeline(p, loc)
	case Matrix:
		return RenderMatrix(p, loc)
	case Dashboard:
		return RenderDashboard(p)
	default:
		return errorStyle.Render(fmt.Sprintf("cannot render %s view", view))
	}
}

func RenderTaskLine(t model.Task, loc *time.Location) string {
	style, ok := priorityStyles[t.Priority]
	if !ok {
		style = footerStyle
	}
	badge := style.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(t.Priority))))
	line := fmt.Sprintf("%s %s %s", badge, t.Deadline.In(orLocal(loc)).Format(displayTimeLayout), t.Title)
	if t.Status != model.StatusPending {
		line += footerStyle.Render(" (" + string(t.Status) + ")")
	}
	if len(t.Tags) > 0 {
		line += footerStyle.Render(" #" + strings.Join(t.Tags, " #"))
	}
	return line + footerStyle.Render(" "+t.ID)
}

func RenderList(tasks []model.Task, loc *time.Location) string {
	lines := []string{headerStyle.Render(fmt.Sprintf("tasks (%d)", len(tasks)))}
	if len(tasks) == 0 {
		lines = append(lines, footerStyle.Render("(no tasks)"))
	}
	for _, t := range tasks {
		lines = append(lines, RenderTaskLine(t, loc))
	}
	return strings.Join(lines, "\n")
}

func RenderKanban(k Kanban, loc *time.Location) string {
	panels := make([]string, 0, len(k.Columns))
	for _, col := range k.Columns {
		panels = append(panels, panelStyle.Width(40).Render(renderGroupBody(col, loc)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("kanban"),
		lipgloss.JoinHorizontal(lipgloss.Top, panels...),
	)
}

func RenderCalendar(c Calendar, loc *time.Location) string {
	lines := []string{headerStyle.Render("calendar " + c.Month)}
	if len(c.Days) == 0 {
		lines = append(lines, footerStyle.Render("(no open tasks this month)"))
	}
	for _, day := range c.Days {
		style := priorityStyles[day.TopPriority]
		lines = append(lines, style.Render(fmt.Sprintf("%s  %d task(s), top %s", day.Date, len(day.Tasks), day.TopPriority)))
		for _, t := range day.Tasks {
			lines = append(lines, "  "+RenderTaskLine(t, loc))
		}
	}
	return strings.Join(lines, "\n")
}

func RenderTimeline(tl Timeline, loc *time.Location) string {
	lines := []string{headerStyle.Render("timeline")}
	shown := 0
	for _, b := range tl.Buckets {
		if len(b.Tasks) == 0 {
			continue
		}
		shown++
		lines = append(lines, panelStyle.Width(80).Render(renderGroupBody(b, loc)))
	}
	if shown == 0 {
		lines = append(lines, footerStyle.Render("(nothing pending)"))
	}
	return strings.Join(lines, "\n")
}

func RenderMatrix(m Matrix, loc *time.Location) string {
	cells := make([]string, 0, len(m.Quadrants))
	for _, q := range m.Quadrants {
		cells = append(cells, panelStyle.Width(48).Render(renderGroupBody(q, loc)))
	}
	for len(cells) < 4 {
		cells = append(cells, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("matrix"),
		lipgloss.JoinHorizontal(lipgloss.Top, cells[0], cells[1]),
		lipgloss.JoinHorizontal(lipgloss.Top, cells[2], cells[3]),
	)
}

func RenderDashboard(d Dashboard) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("total: %d  overdue: %d  due today: %d\n", d.Total, d.Overdue, d.DueToday))
	b.WriteString(fmt.Sprintf("status: pending %d | done %d | not needed %d | archived %d\n",
		d.ByStatus[string(model.StatusPending)],
		d.ByStatus[string(model.StatusDone)],
		d.ByStatus[string(model.StatusNotNeeded)],
		d.ByStatus[string(model.StatusArchived)],
	))
	b.WriteString(fmt.Sprintf("pending: high %d | medium %d | low %d\n",
		d.PendingByPriority[string(model.PriorityHigh)],
		d.PendingByPriority[string(model.PriorityMedium)],
		d.PendingByPriority[string(model.PriorityLow)],
	))
	b.WriteString(fmt.Sprintf("streak: %d (longest %d)  completed: %d  created: %d",
		d.Stats.CurrentStreak, d.Stats.LongestStreak, d.Stats.TotalTasksCompleted, d.Stats.TotalTasksCreated))
	if len(d.Stats.Achievements) > 0 {
		names := make([]string, 0, len(d.Stats.Achievements))
		for _, a := range d.Stats.Achievements {
			names = append(names, fmt.Sprintf("%s-%d", a.Type, a.Value))
		}
		b.WriteString("\nachievements: " + strings.Join(names, ", "))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("dashboard"),
		panelStyle.Render(b.String()),
	)
}

// RenderTask shows one task with its description rendered as markdown.
func RenderTask(t model.Task, loc *time.Location) string {
	loc = orLocal(loc)
	lines := []string{
		headerStyle.Render(t.Title),
		fmt.Sprintf("id: %s", t.ID),
		fmt.Sprintf("status: %s  priority: %s", t.Status, t.Priority),
		fmt.Sprintf("deadline: %s", t.Deadline.In(loc).Format(displayTimeLayout)),
	}
	if len(t.Tags) > 0 {
		lines = append(lines, "tags: "+strings.Join(t.Tags, ", "))
	}
	if t.EstimatedMinutes > 0 || t.SpentMinutes > 0 {
		lines = append(lines, fmt.Sprintf("time: %dm spent / %dm estimated", t.SpentMinutes, t.EstimatedMinutes))
	}
	if t.SnoozedUntil != nil {
		lines = append(lines, "snoozed until: "+t.SnoozedUntil.In(loc).Format(displayTimeLayout))
	}
	if t.Recurrence != nil && t.Recurrence.Repeats() {
		lines = append(lines, fmt.Sprintf("repeats: %s", t.Recurrence.Pattern))
	}
	if md := RenderMarkdown(t.Description); md != "" {
		lines = append(lines, "", md)
	}
	for _, c := range t.Comments {
		lines = append(lines, footerStyle.Render(fmt.Sprintf("%s  %s", c.CreatedAt.In(loc).Format(displayTimeLayout), c.Content)))
	}
	return strings.Join(lines, "\n")
}

func RenderStatus(msg string) string {
	if strings.Contains(strings.ToLower(msg), "error") {
		return errorStyle.Render(msg)
	}
	return statusStyle.Render(msg)
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func renderGroupBody(g Group, loc *time.Location) string {
	lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", g.Title, len(g.Tasks)))}
	if len(g.Tasks) == 0 {
		lines = append(lines, footerStyle.Render("(none)"))
	}
	for _, t := range g.Tasks {
		lines = append(lines, RenderTaskLine(t, loc))
	}
	return strings.Join(lines, "\n")
}
