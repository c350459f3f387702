package commands

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
	"github.com/sandeepkv93/contravault/internal/tasks"
	"github.com/sandeepkv93/contravault/internal/views"
)

func newEnv(t *testing.T) (Env, *tasks.Engine) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "commands.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	now := func() time.Time { return time.Date(2026, 3, 10, 14, 20, 0, 0, time.UTC) }
	engine := tasks.NewEngine(repo, tasks.WithClock(now), tasks.WithLogger(log.New(io.Discard, "", 0)))
	return Env{Service: engine, UserID: "u1", Now: now, Location: time.UTC}, engine
}

func TestRunAddDefaults(t *testing.T) {
	env, _ := newEnv(t)
	res, err := env.Run(context.Background(), "add buy milk #errands")
	if err != nil {
		t.Fatalf("run add: %v", err)
	}
	task := res.Data.(model.Task)
	if !task.Deadline.Equal(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next full hour, got %s", task.Deadline)
	}
	if task.Priority != model.PriorityMedium || task.Description != "buy milk" {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if len(task.Tags) != 1 || task.Tags[0] != "errands" {
		t.Fatalf("unexpected tags: %v", task.Tags)
	}
	if !strings.Contains(res.Message, task.ID) {
		t.Fatalf("message should name the id: %s", res.Message)
	}
}

func TestRunAddDefaultUsesLocalWallClock(t *testing.T) {
	env, _ := newEnv(t)
	env.Location = time.FixedZone("IST", 5*3600+30*60)
	res, err := env.Run(context.Background(), "add call home")
	if err != nil {
		t.Fatalf("run add: %v", err)
	}
	local := res.Data.(model.Task).Deadline.In(env.Location)
	if local.Hour() != 20 || local.Minute() != 0 {
		t.Fatalf("expected 20:00 local, got %s", local.Format("15:04"))
	}
}

func TestNextFullHourAcrossMidnight(t *testing.T) {
	at := time.Date(2026, 3, 10, 23, 45, 0, 0, time.UTC)
	if got := nextFullHour(at, time.UTC); !got.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next hour: %s", got)
	}
}

func TestRunAddSameMinuteConflict(t *testing.T) {
	env, _ := newEnv(t)
	ctx := context.Background()
	if _, err := env.Run(ctx, "add first @tomorrow@10:00"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := env.Run(ctx, "add second @2026-03-11T10:00")
	if !errors.Is(err, tasks.ErrDeadlineConflict) {
		t.Fatalf("expected deadline conflict, got %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	env, engine := newEnv(t)
	ctx := context.Background()
	res, err := env.Run(ctx, "add report @tomorrow !high")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := res.Data.(model.Task).ID

	res, err = env.Run(ctx, "reschedule "+id+" 2026-03-12 16:30")
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got := res.Data.(model.Task).Deadline; !got.Equal(time.Date(2026, 3, 12, 16, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected deadline %s", got)
	}

	res, err = env.Run(ctx, "snooze "+id+" 2 hours")
	if err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if got := res.Data.(model.Task).SnoozedUntil; got == nil || !got.Equal(time.Date(2026, 3, 10, 16, 20, 0, 0, time.UTC)) {
		t.Fatalf("unexpected snooze %v", got)
	}

	if _, err := env.Run(ctx, "done "+id); err != nil {
		t.Fatalf("done: %v", err)
	}
	if _, err := env.Run(ctx, "archive "+id); err != nil {
		t.Fatalf("archive: %v", err)
	}
	task, err := engine.GetTask(ctx, id, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if task.Status != model.StatusArchived || task.ArchivedAt == nil {
		t.Fatalf("expected archived task, got %+v", task)
	}

	if _, err := env.Run(ctx, "done missing-id"); !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunShowViews(t *testing.T) {
	env, _ := newEnv(t)
	ctx := context.Background()
	for _, in := range []string{"add a @today@18:00 #work", "add b @tomorrow #home"} {
		if _, err := env.Run(ctx, in); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
	}

	res, err := env.Run(ctx, "show tasks tag:work")
	if err != nil {
		t.Fatalf("show tasks: %v", err)
	}
	list := res.Data.([]model.Task)
	if len(list) != 1 || list[0].Title != "a" {
		t.Fatalf("unexpected filtered list: %+v", list)
	}

	res, err = env.Run(ctx, "show dashboard")
	if err != nil {
		t.Fatalf("show dashboard: %v", err)
	}
	if d := res.Data.(views.Dashboard); d.Total != 2 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}

	var ce *CommandError
	if _, err := env.Run(ctx, "show gantt"); !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid view, got %v", err)
	}
}
