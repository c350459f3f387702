package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

type countingStore struct {
	storage.TaskStore
	calls int
}

func (s *countingStore) UpdateTasks(context.Context, storage.TaskFilter, storage.TaskPatch) (int64, error) {
	s.calls++
	return 0, nil
}

func TestBatchValidatesBeforeStoreAccess(t *testing.T) {
	store := &countingStore{}
	engine := NewEngine(store)
	ctx := context.Background()

	cases := map[string]BatchRequest{
		"no ids":               {Operation: BatchDelete},
		"empty ids":            {TaskIDs: []string{}, Operation: BatchDelete},
		"no operation":         {TaskIDs: []string{"a"}},
		"unknown operation":    {TaskIDs: []string{"a"}, Operation: "explode"},
		"update without patch": {TaskIDs: []string{"a"}, Operation: BatchUpdate},
		"update bad priority": {
			TaskIDs:   []string{"a"},
			Operation: BatchUpdate,
			Updates:   &BatchUpdates{Priority: ptr(model.Priority("urgent"))},
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			n, err := engine.Batch(ctx, "u1", req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if n != 0 {
				t.Fatalf("expected zero count, got %d", n)
			}
		})
	}
	if store.calls != 0 {
		t.Fatalf("store was touched %d times", store.calls)
	}

	n, err := engine.Batch(ctx, "u1", BatchRequest{TaskIDs: []string{"a"}, Operation: BatchMove})
	if err != nil || n != 0 {
		t.Fatalf("empty move: n=%d err=%v", n, err)
	}
	if store.calls != 0 {
		t.Fatalf("empty move should not reach the store")
	}
}

func seedBatch(t *testing.T, h *harness) (owned []model.Task, foreign []model.Task) {
	t.Helper()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		owned = append(owned, mustCreate(t, h, "u1", input("mine", base.Add(time.Duration(i)*time.Hour), model.PriorityLow)))
	}
	for i := 0; i < 2; i++ {
		foreign = append(foreign, mustCreate(t, h, "u2", input("theirs", base.Add(time.Duration(i)*time.Hour), model.PriorityLow)))
	}
	return owned, foreign
}

func ids(groups ...[]model.Task) []string {
	out := make([]string, 0)
	for _, g := range groups {
		for _, task := range g {
			out = append(out, task.ID)
		}
	}
	return out
}

func TestBatchDeleteSkipsForeignTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owned, foreign := seedBatch(t, h)

	n, err := h.engine.Batch(ctx, "u1", BatchRequest{TaskIDs: ids(owned, foreign), Operation: BatchDelete})
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 modified, got %d", n)
	}
	mine, err := h.engine.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("owned tasks should be deleted: %#v", mine)
	}
	theirs, err := h.engine.ListTasks(ctx, "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(theirs) != 2 {
		t.Fatalf("foreign tasks must be untouched, got %d", len(theirs))
	}

	n, err = h.engine.Batch(ctx, "u1", BatchRequest{TaskIDs: ids(owned), Operation: BatchDelete})
	if err != nil || n != 0 {
		t.Fatalf("deleted tasks are not batch targets: n=%d err=%v", n, err)
	}
}

func TestBatchArchive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owned, _ := seedBatch(t, h)
	if _, err := h.engine.UpdateStatus(ctx, owned[0].ID, "u1", model.StatusDone); err != nil {
		t.Fatalf("complete: %v", err)
	}

	n, err := h.engine.Batch(ctx, "u1", BatchRequest{TaskIDs: ids(owned[:2]), Operation: BatchArchive})
	if err != nil {
		t.Fatalf("batch archive: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 archived, got %d", n)
	}
	for _, task := range owned[:2] {
		got, err := h.engine.GetTask(ctx, task.ID, "u1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != model.StatusArchived || got.ArchivedAt == nil || got.CompletedAt != nil {
			t.Fatalf("unexpected archived task: %#v", got)
		}
	}

	n, err = h.engine.Batch(ctx, "u1", BatchRequest{TaskIDs: ids(owned[:2]), Operation: BatchArchive})
	if err != nil || n != 0 {
		t.Fatalf("already archived tasks should not count: n=%d err=%v", n, err)
	}
}

func TestBatchUpdateBypassesDeadlineCheck(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owned, foreign := seedBatch(t, h)

	shared := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	prio := model.PriorityHigh
	tags := []string{"sprint", "sprint", " "}
	n, err := h.engine.Batch(ctx, "u1", BatchRequest{
		TaskIDs:   ids(owned, foreign),
		Operation: BatchUpdate,
		Updates:   &BatchUpdates{Deadline: &shared, Priority: &prio, Tags: &tags},
	})
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 updated, got %d", n)
	}
	list, err := h.engine.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, task := range list {
		if !task.Deadline.Equal(shared) || task.Priority != model.PriorityHigh {
			t.Fatalf("patch not applied: %#v", task)
		}
		if len(task.Tags) != 1 || task.Tags[0] != "sprint" {
			t.Fatalf("unexpected tags: %#v", task.Tags)
		}
		if task.Status != model.StatusPending {
			t.Fatalf("status must not change: %#v", task)
		}
	}
}

func TestBatchMove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owned, _ := seedBatch(t, h)

	n, err := h.engine.Batch(ctx, "u1", BatchRequest{TaskIDs: ids(owned), Operation: BatchMove, ProjectID: "proj-9"})
	if err != nil {
		t.Fatalf("batch move: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 moved, got %d", n)
	}
	moved, err := h.engine.FilterTasks(ctx, "u1", Filter{ProjectID: "proj-9"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(moved) != 3 {
		t.Fatalf("expected 3 tasks in project, got %d", len(moved))
	}
	for _, task := range moved {
		if task.WorkspaceID != "" {
			t.Fatalf("workspace should be untouched: %#v", task)
		}
	}
}
