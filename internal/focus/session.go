package focus

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

// Session is a pomodoro timer. It does not read the clock; callers drive it
// with Tick.
type Session struct {
	Work      time.Duration
	Break     time.Duration
	Phase     Phase
	Remaining time.Duration
	Running   bool
	Pomodoros int
}

func NewSession(work, brk time.Duration) Session {
	if work <= 0 {
		work = DefaultWork
	}
	if brk <= 0 {
		brk = DefaultBreak
	}
	return Session{Work: work, Break: brk, Phase: PhaseWork, Remaining: work}
}

func (s Session) Total() time.Duration {
	if s.Phase == PhaseBreak {
		return s.Break
	}
	return s.Work
}

func (s Session) Ended() bool {
	return s.Remaining <= 0
}

// Progress is the elapsed fraction of the current phase in [0, 1].
func (s Session) Progress() float64 {
	total := s.Total()
	if total <= 0 {
		return 0
	}
	p := float64(total-s.Remaining) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Toggle starts or pauses the timer. Starting an ended phase rewinds it.
func (s *Session) Toggle() {
	if s.Running {
		s.Running = false
		return
	}
	if s.Ended() {
		s.Remaining = s.Total()
	}
	s.Running = true
}

func (s *Session) Reset() {
	s.Running = false
	s.Remaining = s.Total()
}

// Tick counts d off a running phase and reports whether the phase just ran out.
func (s *Session) Tick(d time.Duration) bool {
	if !s.Running || s.Ended() {
		return false
	}
	s.Remaining -= d
	if s.Remaining <= 0 {
		s.Remaining = 0
		s.Running = false
		return true
	}
	return false
}

// Advance moves to the next phase. Leaving a work phase counts a pomodoro and
// returns the whole minutes worked in it.
func (s *Session) Advance() int {
	worked := 0
	if s.Phase == PhaseWork {
		worked = int((s.Work - s.Remaining) / time.Minute)
		s.Pomodoros++
		s.Phase = PhaseBreak
	} else {
		s.Phase = PhaseWork
	}
	s.Running = false
	s.Remaining = s.Total()
	return worked
}

func (s Session) Clock() string {
	rem := s.Remaining
	if rem < 0 {
		rem = 0
	}
	secs := int(rem.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
