package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/tasks"
	"github.com/sandeepkv93/contravault/internal/views"
)

// Service is the part of tasks.Engine the quick commands drive.
type Service interface {
	CreateTask(ctx context.Context, userID string, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id, userID string, patch model.TaskPatch) (model.Task, error)
	UpdateStatus(ctx context.Context, id, userID string, status model.Status) (model.Task, error)
	SnoozeTask(ctx context.Context, id, userID string, until time.Time) (model.Task, error)
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	FilterTasks(ctx context.Context, userID string, f tasks.Filter) ([]model.Task, error)
	GetUserStats(ctx context.Context, userID string) (model.UserStats, error)
}

type Env struct {
	Service  Service
	UserID   string
	Now      func() time.Time
	Location *time.Location
	// DefaultPriority applies when an add has no !priority token.
	DefaultPriority model.Priority
}

// Handlers binds every command to svc on behalf of one user.
func (env Env) Handlers(ctx context.Context) Handlers {
	now := env.Now
	if now == nil {
		now = time.Now
	}
	loc := env.Location
	if loc == nil {
		loc = time.Local
	}
	defaultPriority := env.DefaultPriority
	if !defaultPriority.IsValid() {
		defaultPriority = model.PriorityMedium
	}

	return Handlers{
		Add: func(a AddArgs) (Result, error) {
			current := now()
			deadline := nextFullHour(current, loc)
			if a.When != "" {
				resolved, err := ResolveWhen(a.When, current, loc)
				if err != nil {
					return Result{}, err
				}
				deadline = resolved
			}
			priority := a.Priority
			if priority == "" {
				priority = defaultPriority
			}
			task, err := env.Service.CreateTask(ctx, env.UserID, model.TaskInput{
				Title:       a.Title,
				Description: a.Title,
				Deadline:    deadline,
				Priority:    priority,
				Tags:        a.Tags,
			})
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("added %s due %s", task.ID, task.Deadline.In(loc).Format("2006-01-02 15:04")), Data: task}, nil
		},
		Done: func(a TargetArgs) (Result, error) {
			task, err := env.Service.UpdateStatus(ctx, a.Target, env.UserID, model.StatusDone)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("completed %s", task.Title), Data: task}, nil
		},
		Archive: func(a TargetArgs) (Result, error) {
			task, err := env.Service.UpdateStatus(ctx, a.Target, env.UserID, model.StatusArchived)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("archived %s", task.Title), Data: task}, nil
		},
		Snooze: func(a SnoozeArgs) (Result, error) {
			span, err := ParseSpan(a.For)
			if err != nil {
				return Result{}, err
			}
			task, err := env.Service.SnoozeTask(ctx, a.Target, env.UserID, now().Add(span))
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("snoozed %s until %s", task.Title, task.SnoozedUntil.In(loc).Format("2006-01-02 15:04")), Data: task}, nil
		},
		Reschedule: func(a RescheduleArgs) (Result, error) {
			when, err := ResolveWhen(a.When, now(), loc)
			if err != nil {
				return Result{}, err
			}
			task, err := env.Service.UpdateTask(ctx, a.Target, env.UserID, model.TaskPatch{Deadline: &when})
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("rescheduled %s to %s", task.Title, task.Deadline.In(loc).Format("2006-01-02 15:04")), Data: task}, nil
		},
		Show: func(a ShowArgs) (Result, error) {
			subject := a.Subject
			if subject == "tasks" {
				subject = string(views.ViewList)
			}
			view, err := views.ParseView(subject)
			if err != nil {
				return Result{}, invalid("%v", err)
			}
			var list []model.Task
			if a.Tag != "" {
				list, err = env.Service.FilterTasks(ctx, env.UserID, tasks.Filter{Tags: []string{a.Tag}})
			} else {
				list, err = env.Service.ListTasks(ctx, env.UserID)
			}
			if err != nil {
				return Result{}, err
			}
			opts := views.Options{Now: now(), Location: loc}
			if view == views.ViewDashboard {
				if opts.Stats, err = env.Service.GetUserStats(ctx, env.UserID); err != nil {
					return Result{}, err
				}
			}
			projection, err := views.Build(view, list, opts)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: views.Render(view, projection, loc), Data: projection}, nil
		},
	}
}

// nextFullHour is the first whole local hour after t. It goes by wall clock, so
// zones with half-hour offsets still land on :00.
func nextFullHour(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, local.Hour()+1, 0, 0, 0, loc)
}

// Run parses input and executes it against env.
func (env Env) Run(ctx context.Context, input string) (Result, error) {
	cmd, err := Parse(input)
	if err != nil {
		return Result{}, err
	}
	return Execute(cmd, env.Handlers(ctx))
}
