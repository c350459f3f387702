package tasks

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

// Recorder receives task lifecycle events for gamification.
type Recorder interface {
	RecordTaskCreated(ctx context.Context, userID string) error
	RecordTaskCompleted(ctx context.Context, userID string, task model.Task) error
}

// StatsSource is implemented by recorders that can report a user's stats.
type StatsSource interface {
	GetUserStats(ctx context.Context, userID string) (model.UserStats, error)
}

type Engine struct {
	repo     storage.TaskStore
	recorder Recorder
	now      func() time.Time
	newID    func() string
	logger   *log.Logger
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(repo storage.TaskStore, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filter narrows ListTasks. DeadlineFrom and DeadlineTo are both inclusive.
type Filter struct {
	Tags         []string         `json:"tags,omitempty"`
	Priorities   []model.Priority `json:"priorities,omitempty"`
	Statuses     []model.Status   `json:"statuses,omitempty"`
	ProjectID    string           `json:"projectId,omitempty"`
	WorkspaceID  string           `json:"workspaceId,omitempty"`
	Context      string           `json:"context,omitempty"`
	Search       string           `json:"search,omitempty"`
	DeadlineFrom *time.Time       `json:"deadlineFrom,omitempty"`
	DeadlineTo   *time.Time       `json:"deadlineTo,omitempty"`
}

func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Priorities) == 0 && len(f.Statuses) == 0 &&
		f.ProjectID == "" && f.WorkspaceID == "" && f.Context == "" &&
		strings.TrimSpace(f.Search) == "" && f.DeadlineFrom == nil && f.DeadlineTo == nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationf("user id is required")
	}
	return nil
}

// requireTask rejects calls that do not name one task of one user. An empty
// id matches no task.
func requireTask(id, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return nil
}

func (e *Engine) CreateTask(ctx context.Context, userID string, in model.TaskInput) (model.Task, error) {
	if err := requireUser(userID); err != nil {
		return model.Task{}, err
	}
	if err := in.Validate(); err != nil {
		return model.Task{}, validationError(err)
	}
	deadline := in.Deadline.UTC()
	if err := e.checkDeadline(ctx, userID, deadline, ""); err != nil {
		return model.Task{}, err
	}
	if in.ParentTaskID != "" {
		if _, err := e.GetTask(ctx, in.ParentTaskID, userID); err != nil {
			return model.Task{}, err
		}
	}

	now := e.now().UTC()
	task := model.Task{
		ID:               e.newID(),
		UserID:           userID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Deadline:         deadline,
		Priority:         in.Priority,
		Status:           model.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
		Tags:             cleanTags(in.Tags),
		ProjectID:        in.ProjectID,
		WorkspaceID:      in.WorkspaceID,
		ParentTaskID:     in.ParentTaskID,
		Subtasks:         []string{},
		Dependencies:     []string{},
		EstimatedMinutes: in.EstimatedMinutes,
		Context:          in.Context,
		Location:         in.Location,
		Comments:         []model.Comment{},
		Attachments:      []model.Attachment{},
	}
	if in.Recurrence != nil && in.Recurrence.Repeats() {
		rule := *in.Recurrence
		task.Recurrence = &rule
	}
	if err := e.repo.InsertTask(ctx, toStorage(task)); err != nil {
		return model.Task{}, storeErr("insert task", err)
	}

	if task.ParentTaskID != "" {
		if _, err := e.repo.FindOneAndUpdateTask(ctx,
			storage.TaskFilter{ID: task.ParentTaskID, UserID: userID, ActiveOnly: true},
			storage.TaskPatch{AppendSubtask: task.ID, UpdatedAt: now},
		); err != nil {
			e.discard(ctx, task.ID, userID, now)
			return model.Task{}, storeErr("link subtask", err)
		}
	}

	if e.recorder != nil {
		if err := e.recorder.RecordTaskCreated(ctx, userID); err != nil {
			e.logger.Printf("record task created for user %s: %v", userID, err)
		}
	}
	return task, nil
}

// discard soft-deletes a task whose creation could not be completed.
func (e *Engine) discard(ctx context.Context, id, userID string, now time.Time) {
	deleted := true
	if _, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{IsDeleted: &deleted, DeletedAt: &now, UpdatedAt: now},
	); err != nil {
		e.logger.Printf("discard task %s after failed create: %v", id, err)
	}
}

// checkDeadline fails when another active task of userID falls in the same
// minute as deadline. excludeID skips the task being updated.
func (e *Engine) checkDeadline(ctx context.Context, userID string, deadline time.Time, excludeID string) error {
	start, end := model.MinuteWindow(deadline)
	found, err := e.repo.FindTasks(ctx, storage.TaskFilter{
		UserID:         userID,
		ExcludeID:      excludeID,
		ActiveOnly:     true,
		DeadlineFrom:   &start,
		DeadlineBefore: &end,
		Limit:          1,
	})
	if err != nil {
		return storeErr("check deadline", err)
	}
	if len(found) > 0 {
		return &DeadlineConflictError{Minute: start}
	}
	return nil
}

func (e *Engine) GetTask(ctx context.Context, id, userID string) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	task, err := e.repo.FindTask(ctx, storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true})
	if err != nil {
		return model.Task{}, storeErr("find task", err)
	}
	return toModel(task), nil
}

// UpdateTask edits title, description, deadline and priority. Status changes go
// through UpdateStatus.
func (e *Engine) UpdateTask(ctx context.Context, id, userID string, patch model.TaskPatch) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	if err := patch.Validate(); err != nil {
		return model.Task{}, validationError(err)
	}
	if patch.IsEmpty() {
		return e.GetTask(ctx, id, userID)
	}
	var deadline *time.Time
	if patch.Deadline != nil {
		if _, err := e.GetTask(ctx, id, userID); err != nil {
			return model.Task{}, err
		}
		d := patch.Deadline.UTC()
		if err := e.checkDeadline(ctx, userID, d, id); err != nil {
			return model.Task{}, err
		}
		deadline = &d
	}

	var title *string
	if patch.Title != nil {
		title = strPtr(strings.TrimSpace(*patch.Title))
	}
	updated, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{
			Title:       title,
			Description: patch.Description,
			Deadline:    deadline,
			Priority:    priorityPtr(patch.Priority),
			UpdatedAt:   e.now().UTC(),
		},
	)
	if err != nil {
		return model.Task{}, storeErr("update task", err)
	}
	return toModel(updated), nil
}

// UpdateStatus moves a task along the transition table. The write is
// conditional on the status read, so a concurrent change surfaces as ErrNotFound
// and the completion event fires at most once per pending to done move.
func (e *Engine) UpdateStatus(ctx context.Context, id, userID string, status model.Status) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	if !status.IsValid() {
		return model.Task{}, validationError(model.ErrInvalidStatus)
	}
	current, err := e.GetTask(ctx, id, userID)
	if err != nil {
		return model.Task{}, err
	}
	if err := model.CheckTransition(current.Status, status); err != nil {
		return model.Task{}, err
	}

	now := e.now().UTC()
	patch := storage.TaskPatch{Status: strPtr(string(status)), UpdatedAt: now}
	switch {
	case status == model.StatusDone:
		patch.CompletedAt = &now
	case current.Status == model.StatusDone:
		patch.ClearCompletedAt = true
	}
	if status == model.StatusArchived {
		patch.ArchivedAt = &now
	}

	updated, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true, Statuses: []string{string(current.Status)}},
		patch,
	)
	if err != nil {
		return model.Task{}, storeErr("update status", err)
	}
	task := toModel(updated)

	if current.Status == model.StatusPending && status == model.StatusDone {
		e.recordCompleted(ctx, userID, task)
		e.spawnNextOccurrence(ctx, userID, task)
	}
	return task, nil
}

func (e *Engine) recordCompleted(ctx context.Context, userID string, task model.Task) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordTaskCompleted(ctx, userID, task); err != nil {
		e.logger.Printf("record task completed for user %s task %s: %v", userID, task.ID, err)
	}
}

// spawnNextOccurrence creates the follow-up of a completed recurring task.
// Failures are logged; the completion itself has already succeeded.
func (e *Engine) spawnNextOccurrence(ctx context.Context, userID string, task model.Task) {
	if task.Recurrence == nil || !task.Recurrence.Repeats() {
		return
	}
	next, ok, err := task.Recurrence.NextAfter(task.Deadline)
	if err != nil {
		e.logger.Printf("recurrence for task %s: %v", task.ID, err)
		return
	}
	if !ok {
		return
	}
	rule := task.Recurrence.Advance()
	spawned, err := e.CreateTask(ctx, userID, model.TaskInput{
		Title:            task.Title,
		Description:      task.Description,
		Deadline:         next,
		Priority:         task.Priority,
		Tags:             task.Tags,
		ProjectID:        task.ProjectID,
		WorkspaceID:      task.WorkspaceID,
		ParentTaskID:     task.ParentTaskID,
		EstimatedMinutes: task.EstimatedMinutes,
		Context:          task.Context,
		Location:         task.Location,
		Recurrence:       &rule,
	})
	if err != nil {
		e.logger.Printf("spawn next occurrence of task %s: %v", task.ID, err)
		return
	}
	e.logger.Printf("task %s recurs as %s at %s", task.ID, spawned.ID, spawned.Deadline.Format(time.RFC3339))
}

// DeleteTask soft-deletes the task. It reports false when no active task of
// userID has that id.
func (e *Engine) DeleteTask(ctx context.Context, id, userID string) (bool, error) {
	if err := requireTask(id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	now := e.now().UTC()
	deleted := true
	_, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{IsDeleted: &deleted, DeletedAt: &now, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, storeErr("delete task", err)
	}
	return true, nil
}

func (e *Engine) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	found, err := e.repo.FindTasks(ctx, storage.TaskFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	out := toModels(found)
	model.SortTasks(out)
	return out, nil
}

func (e *Engine) FilterTasks(ctx context.Context, userID string, f Filter) ([]model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query := storage.TaskFilter{
		UserID:       userID,
		ActiveOnly:   true,
		Tags:         f.Tags,
		ProjectID:    f.ProjectID,
		WorkspaceID:  f.WorkspaceID,
		Context:      f.Context,
		Search:       f.Search,
		DeadlineFrom: f.DeadlineFrom,
	}
	for _, p := range f.Priorities {
		if !p.IsValid() {
			return nil, validationError(model.ErrInvalidPriority)
		}
		query.Priorities = append(query.Priorities, string(p))
	}
	for _, s := range f.Statuses {
		if !s.IsValid() {
			return nil, validationError(model.ErrInvalidStatus)
		}
	}
	query.Statuses = statusStrings(f.Statuses)
	if f.DeadlineTo != nil {
		before := f.DeadlineTo.Add(time.Nanosecond)
		query.DeadlineBefore = &before
	}
	if f.DeadlineFrom != nil && f.DeadlineTo != nil && f.DeadlineTo.Before(*f.DeadlineFrom) {
		return nil, validationf("deadline range ends before it starts")
	}

	found, err := e.repo.FindTasks(ctx, query)
	if err != nil {
		return nil, storeErr("filter tasks", err)
	}
	out := toModels(found)
	model.SortTasks(out)
	return out, nil
}

func (e *Engine) Subtasks(ctx context.Context, id, userID string) ([]model.Task, error) {
	if _, err := e.GetTask(ctx, id, userID); err != nil {
		return nil, err
	}
	found, err := e.repo.FindTasks(ctx, storage.TaskFilter{UserID: userID, ParentTaskID: id, ActiveOnly: true})
	if err != nil {
		return nil, storeErr("list subtasks", err)
	}
	out := toModels(found)
	model.SortTasks(out)
	return out, nil
}

func (e *Engine) SnoozeTask(ctx context.Context, id, userID string, until time.Time) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	now := e.now().UTC()
	if !until.After(now) {
		return model.Task{}, validationf("snooze time must be in the future")
	}
	u := until.UTC()
	updated, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{SnoozedUntil: &u, UpdatedAt: now},
	)
	if err != nil {
		return model.Task{}, storeErr("snooze task", err)
	}
	return toModel(updated), nil
}

func (e *Engine) AddComment(ctx context.Context, id, userID, content string) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Task{}, validationf("comment content is required")
	}
	now := e.now().UTC()
	comment := model.Comment{ID: e.newID(), UserID: userID, Content: content, CreatedAt: now}
	updated, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{AppendComment: &comment, UpdatedAt: now},
	)
	if err != nil {
		return model.Task{}, storeErr("add comment", err)
	}
	return toModel(updated), nil
}

// LogTime adds worked minutes to the task's time spent.
func (e *Engine) LogTime(ctx context.Context, id, userID string, minutes int) (model.Task, error) {
	if err := requireTask(id, userID); err != nil {
		return model.Task{}, err
	}
	if minutes <= 0 {
		return model.Task{}, validationf("minutes must be positive")
	}
	updated, err := e.repo.FindOneAndUpdateTask(ctx,
		storage.TaskFilter{ID: id, UserID: userID, ActiveOnly: true},
		storage.TaskPatch{AddSpentMinutes: minutes, UpdatedAt: e.now().UTC()},
	)
	if err != nil {
		return model.Task{}, storeErr("log time", err)
	}
	return toModel(updated), nil
}

func (e *Engine) GetUserStats(ctx context.Context, userID string) (model.UserStats, error) {
	if err := requireUser(userID); err != nil {
		return model.UserStats{}, err
	}
	source, ok := e.recorder.(StatsSource)
	if !ok {
		return model.NewUserStats(userID), nil
	}
	return source.GetUserStats(ctx, userID)
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
