package reminders

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueEmitsInTriggerOrder(t *testing.T) {
	q := NewQueue(8)
	q.Start()
	defer q.Stop()

	now := time.Now().UTC()
	if _, err := q.Schedule(Event{TaskID: "later", Kind: KindDue, TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if _, err := q.Schedule(Event{TaskID: "sooner", Kind: KindDue, TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, q.C(), time.Second)
	second := waitEvent(t, q.C(), time.Second)
	if first.TaskID != "sooner" || second.TaskID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.TaskID, second.TaskID)
	}
}

func TestQueueDropsWhenConsumerIsSlow(t *testing.T) {
	q := NewQueue(1)
	q.Start()
	defer q.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if _, err := q.Schedule(Event{TaskID: fmt.Sprintf("t%d", i), Kind: KindDue, Deadline: now, TriggerAt: now}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if q.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", q.Dropped())
	}
}

func TestQueueValidatesAndDeduplicates(t *testing.T) {
	q := NewQueue(1)
	if _, err := q.Schedule(Event{TaskID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}

	deadline := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ev := Event{TaskID: "t1", Kind: KindDue, Deadline: deadline, TriggerAt: deadline}
	if ok, _ := q.Schedule(ev); !ok {
		t.Fatalf("first schedule should be accepted")
	}
	if ok, _ := q.Schedule(ev); ok {
		t.Fatalf("duplicate key should be ignored")
	}
	moved := ev
	moved.Deadline = deadline.Add(time.Hour)
	moved.TriggerAt = moved.Deadline
	if ok, _ := q.Schedule(moved); !ok {
		t.Fatalf("a moved deadline is a new reminder")
	}
	if q.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", q.Pending())
	}

	q.Forget(deadline.Add(time.Minute))
	if ok, _ := q.Schedule(ev); !ok {
		t.Fatalf("forgotten key should be accepted again")
	}
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := NewQueue(1)
	q.Start()
	q.Stop()
	if _, err := q.Schedule(Event{TaskID: "x", TriggerAt: time.Now()}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestQueueStressConcurrentSchedule(t *testing.T) {
	q := NewQueue(4096)
	q.Start()
	defer q.Stop()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				delay := time.Duration((w+i)%50+10) * time.Millisecond
				ev := Event{
					TaskID:    fmt.Sprintf("w%d-%d", w, i),
					Kind:      KindUpcoming,
					Deadline:  now.Add(time.Hour),
					TriggerAt: now.Add(delay),
				}
				if _, err := q.Schedule(ev); err != nil {
					t.Errorf("schedule failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	var received int64
	for atomic.LoadInt64(&received) < int64(total) {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting events: received=%d total=%d dropped=%d", received, total, q.Dropped())
		case <-q.C():
			atomic.AddInt64(&received, 1)
		}
	}
	if q.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", q.Dropped())
	}
}

func waitEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}
