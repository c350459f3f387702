package reminders

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("reminders: invalid trigger time")
	ErrStopped            = errors.New("reminders: queue stopped")
)

type Kind string

const (
	KindUpcoming Kind = "upcoming"
	KindDue      Kind = "due"
)

type Event struct {
	TaskID    string
	UserID    string
	Title     string
	Kind      Kind
	Deadline  time.Time
	TriggerAt time.Time
}

// Key identifies a reminder. A moved deadline yields a new key.
func (e Event) Key() string {
	return e.TaskID + "|" + string(e.Kind) + "|" + e.Deadline.UTC().Format(time.RFC3339)
}

type queueItem struct {
	event Event
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.TriggerAt.Before(pq[j].event.TriggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Queue emits events on C at their trigger time. Each key is accepted once
// until Forget drops it.
type Queue struct {
	mu      sync.Mutex
	queue   priorityQueue
	seen    map[string]time.Time
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewQueue(bufferSize int) *Queue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Queue{
		queue:  make(priorityQueue, 0),
		seen:   make(map[string]time.Time),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (q *Queue) C() <-chan Event {
	return q.out
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	heap.Init(&q.queue)
	go q.loop()
}

func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.stopCh)
	q.mu.Unlock()
	<-q.doneCh
}

// Schedule queues ev and reports false when its key was already accepted.
func (q *Queue) Schedule(ev Event) (bool, error) {
	if ev.TriggerAt.IsZero() {
		return false, ErrInvalidTriggerTime
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false, ErrStopped
	}
	key := ev.Key()
	if _, ok := q.seen[key]; ok {
		return false, nil
	}
	q.seen[key] = ev.Deadline

	heap.Push(&q.queue, queueItem{event: ev})
	q.signalWakeup()
	return true, nil
}

// Forget drops remembered keys whose deadline is before cutoff.
func (q *Queue) Forget(cutoff time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key, deadline := range q.seen {
		if deadline.Before(cutoff) {
			delete(q.seen, key)
		}
	}
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

func (q *Queue) loop() {
	defer close(q.doneCh)
	defer close(q.out)

	var timer *time.Timer
	for {
		next, hasNext := q.peek()
		if !hasNext {
			select {
			case <-q.wakeup:
				continue
			case <-q.stopCh:
				return
			}
		}

		wait := time.Until(next.TriggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range q.popDue(time.Now().UTC()) {
				select {
				case q.out <- ev:
				default:
					atomic.AddUint64(&q.dropped, 1)
				}
			}
		case <-q.wakeup:
			continue
		case <-q.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (q *Queue) signalWakeup() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

func (q *Queue) peek() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return Event{}, false
	}
	return q.queue[0].event, true
}

func (q *Queue) popDue(now time.Time) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Event, 0)
	for len(q.queue) > 0 {
		next := q.queue[0].event
		if next.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&q.queue).(queueItem)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
