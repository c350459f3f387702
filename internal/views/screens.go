package views

import (
	"fmt"
	"strings"
)

type FocusPanelData struct {
	TaskTitle          string
	Phase              string
	Running            bool
	Timer              string
	ProgressView       string
	ProgressPct        int
	CompletedPomodoros int
	LoggedMinutes      int
	ShowEndPrompt      bool
	Notification       string
}

func RenderFocusPanel(data FocusPanelData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("focus") + "\n")
	if data.TaskTitle != "" {
		b.WriteString(fmt.Sprintf("task: %s\n", data.TaskTitle))
	} else {
		b.WriteString("task: (none selected)\n")
	}
	state := "paused"
	if data.Running {
		state = "running"
	}
	b.WriteString(fmt.Sprintf("phase: %s (%s)\n", strings.ToUpper(data.Phase), state))
	b.WriteString(fmt.Sprintf("timer: %s\n", data.Timer))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", data.ProgressView, data.ProgressPct))
	b.WriteString(fmt.Sprintf("pomodoros completed: %d\n", data.CompletedPomodoros))
	if data.LoggedMinutes > 0 {
		b.WriteString(fmt.Sprintf("time logged: %dm\n", data.LoggedMinutes))
	}
	b.WriteString(footerStyle.Render("actions: [space]start/pause [r]reset [n]next-phase [q]quit") + "\n")
	if data.ShowEndPrompt {
		b.WriteString("prompt: session ended, press [n] to continue\n")
	}
	if note := RenderNotification("info", data.Notification); note != "" {
		b.WriteString(note)
	}
	return panelStyle.Render(strings.TrimSpace(b.String()))
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("\nnotification: [%s] %s", strings.ToUpper(level), body)
}
