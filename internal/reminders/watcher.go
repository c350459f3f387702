package reminders

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

const (
	DefaultLead     = 15 * time.Minute
	DefaultInterval = time.Minute
	DefaultWindow   = time.Hour
)

// Notify receives reminders for tasks that are still pending when they fire.
type Notify func(Event)

// Watcher polls the store for pending tasks due soon and queues an upcoming
// reminder Lead before the deadline and a due reminder at the deadline.
type Watcher struct {
	store    storage.TaskStore
	queue    *Queue
	lead     time.Duration
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	notify   Notify
	logger   *log.Logger
}

type Option func(*Watcher)

func WithLead(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.lead = d
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

func WithNotify(fn Notify) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.notify = fn
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWatcher(store storage.TaskStore, opts ...Option) *Watcher {
	w := &Watcher{
		store:    store,
		queue:    NewQueue(256),
		lead:     DefaultLead,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.window = w.lead + w.interval + DefaultWindow
	if w.notify == nil {
		w.notify = func(ev Event) {
			w.logger.Printf("reminder: %s task %q (%s) for user %s due %s",
				ev.Kind, ev.Title, ev.TaskID, ev.UserID, ev.Deadline.Format(time.RFC3339))
		}
	}
	return w
}

// Scan queues reminders for pending tasks due within the look-ahead window and
// returns how many new reminders were queued.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	now := w.now().UTC()
	until := now.Add(w.window)
	found, err := w.store.FindTasks(ctx, storage.TaskFilter{
		ActiveOnly:     true,
		Statuses:       []string{string(model.StatusPending)},
		DeadlineFrom:   &now,
		DeadlineBefore: &until,
	})
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, t := range found {
		for _, ev := range w.eventsFor(t, now) {
			ok, err := w.queue.Schedule(ev)
			if err != nil {
				return queued, err
			}
			if ok {
				queued++
			}
		}
	}
	return queued, nil
}

func (w *Watcher) eventsFor(t storage.Task, now time.Time) []Event {
	base := Event{TaskID: t.ID, UserID: t.UserID, Title: t.Title, Deadline: t.Deadline}
	var out []Event
	if w.lead > 0 {
		at := t.Deadline.Add(-w.lead)
		if at.Before(now) {
			at = now
		}
		up := base
		up.Kind, up.TriggerAt = KindUpcoming, at
		out = append(out, up)
	}
	due := base
	due.Kind, due.TriggerAt = KindDue, t.Deadline
	out = append(out, due)

	kept := out[:0]
	for _, ev := range out {
		if t.SnoozedUntil != nil && t.SnoozedUntil.After(ev.TriggerAt) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

// deliver re-reads the task and notifies only if it is still pending with the
// same deadline.
func (w *Watcher) deliver(ctx context.Context, ev Event) {
	t, err := w.store.FindTask(ctx, storage.TaskFilter{ID: ev.TaskID, UserID: ev.UserID, ActiveOnly: true})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			w.logger.Printf("reminder lookup for %s failed: %v", ev.TaskID, err)
		}
		return
	}
	if t.Status != string(model.StatusPending) || !t.Deadline.Equal(ev.Deadline) {
		return
	}
	if t.SnoozedUntil != nil && t.SnoozedUntil.After(w.now()) {
		return
	}
	w.notify(ev)
}

// Run scans every interval and delivers reminders until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.queue.Start()
	defer w.queue.Stop()

	if _, err := w.Scan(ctx); err != nil {
		w.logger.Printf("reminder scan failed: %v", err)
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Scan(ctx); err != nil {
				w.logger.Printf("reminder scan failed: %v", err)
			}
			w.queue.Forget(w.now().Add(-w.window))
		case ev, ok := <-w.queue.C():
			if !ok {
				return nil
			}
			w.deliver(ctx, ev)
		}
	}
}
