package focus

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/contravault/internal/views"
)

// LogFunc records worked minutes against the attached task.
type LogFunc func(minutes int) error

type Options struct {
	Work      time.Duration
	Break     time.Duration
	TaskTitle string
	Log       LogFunc
}

type tickMsg struct {
	gen int
}

type Model struct {
	Session      Session
	TaskTitle    string
	Logged       int
	Notification string

	log      LogFunc
	bar      progress.Model
	gen      int
	tickRate time.Duration
}

func NewModel(opts Options) Model {
	return Model{
		Session:   NewSession(opts.Work, opts.Break),
		TaskTitle: opts.TaskTitle,
		log:       opts.Log,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		tickRate:  time.Second,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.tickRate, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.Session.Toggle()
			m.gen++
			if m.Session.Running {
				m.Notification = ""
				return m, m.tick()
			}
			return m, nil
		case "r":
			m.Session.Reset()
			m.gen++
			m.Notification = "focus reset"
			return m, nil
		case "n":
			m.advance()
			m.gen++
			return m, nil
		}
	case tickMsg:
		if typed.gen != m.gen || !m.Session.Running {
			return m, nil
		}
		if m.Session.Tick(m.tickRate) {
			if m.Session.Phase == PhaseWork {
				m.Notification = "work session complete; press n to start break"
			} else {
				m.Notification = "break complete; press n for next focus block"
			}
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	worked := m.Session.Advance()
	if m.Session.Phase == PhaseWork {
		m.Notification = "focus block ready"
		return
	}
	m.Notification = "break ready"
	if worked <= 0 || m.log == nil {
		return
	}
	if err := m.log(worked); err != nil {
		m.Notification = fmt.Sprintf("logging %dm failed: %v", worked, err)
		return
	}
	m.Logged += worked
}

func (m Model) View() string {
	p := m.Session.Progress()
	return views.RenderFocusPanel(views.FocusPanelData{
		TaskTitle:          m.TaskTitle,
		Phase:              string(m.Session.Phase),
		Running:            m.Session.Running,
		Timer:              m.Session.Clock(),
		ProgressView:       m.bar.ViewAs(p),
		ProgressPct:        int(p * 100),
		CompletedPomodoros: m.Session.Pomodoros,
		LoggedMinutes:      m.Logged,
		ShowEndPrompt:      m.Session.Ended(),
		Notification:       m.Notification,
	})
}

// Run blocks until the user quits or ctx is cancelled, and returns the final
// state.
func Run(ctx context.Context, opts Options) (Model, error) {
	final, err := tea.NewProgram(NewModel(opts), tea.WithContext(ctx)).Run()
	if m, ok := final.(Model); ok {
		return m, err
	}
	return NewModel(opts), err
}
