package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrMissingField    = errors.New("model: required field missing")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDone      Status = "done"
	StatusNotNeeded Status = "not_needed"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDone, StatusNotNeeded, StatusArchived:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for sorting: high=2, medium=1, low=0. Unknown values rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 0
	default:
		return -1
	}
}

type Comment struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Attachment struct {
	ID         string    `json:"id" bson:"id"`
	Filename   string    `json:"filename" bson:"filename"`
	URL        string    `json:"url" bson:"url"`
	Size       int64     `json:"size" bson:"size"`
	MimeType   string    `json:"mimeType" bson:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	IsDeleted   bool       `json:"isDeleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Tags             []string     `json:"tags"`
	ProjectID        string       `json:"projectId,omitempty"`
	WorkspaceID      string       `json:"workspaceId,omitempty"`
	ParentTaskID     string       `json:"parentTaskId,omitempty"`
	Subtasks         []string     `json:"subtasks,omitempty"`
	Dependencies     []string     `json:"dependencies,omitempty"`
	EstimatedMinutes int          `json:"estimatedTime,omitempty"`
	SpentMinutes     int          `json:"timeSpent"`
	Context          string       `json:"context,omitempty"`
	Location         string       `json:"location,omitempty"`
	Recurrence       *Recurrence  `json:"recurrence,omitempty"`
	Comments         []Comment    `json:"comments"`
	Attachments      []Attachment `json:"attachments"`
	SnoozedUntil     *time.Time   `json:"snoozedUntil,omitempty"`
	ArchivedAt       *time.Time   `json:"archivedAt,omitempty"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
}

func (t Task) IsActive() bool {
	return !t.IsDeleted
}

// IsSnoozed reports whether the task is hidden from active planning at now.
func (t Task) IsSnoozed(now time.Time) bool {
	return t.SnoozedUntil != nil && t.SnoozedUntil.After(now)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return errors.New("model: task user_id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.Deadline.IsZero() {
		return errors.New("model: task deadline is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.Status == StatusDone && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task status is done")
	}
	if t.Status != StatusDone && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when task status is not done")
	}
	return nil
}

// TaskInput is the payload accepted when creating a task.
type TaskInput struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Deadline         time.Time   `json:"deadline"`
	Priority         Priority    `json:"priority"`
	Tags             []string    `json:"tags,omitempty"`
	ProjectID        string      `json:"projectId,omitempty"`
	WorkspaceID      string      `json:"workspaceId,omitempty"`
	ParentTaskID     string      `json:"parentTaskId,omitempty"`
	EstimatedMinutes int         `json:"estimatedTime,omitempty"`
	Context          string      `json:"context,omitempty"`
	Location         string      `json:"location,omitempty"`
	Recurrence       *Recurrence `json:"recurrence,omitempty"`
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	if in.Deadline.IsZero() {
		return fmt.Errorf("%w: deadline", ErrMissingField)
	}
	if in.Priority == "" {
		return fmt.Errorf("%w: priority", ErrMissingField)
	}
	if !in.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	if in.EstimatedMinutes < 0 {
		return errors.New("model: estimated time must not be negative")
	}
	if in.Recurrence != nil {
		if err := in.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TaskPatch is a partial update of the editable core fields. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && p.Priority == nil
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	if p.Deadline != nil && p.Deadline.IsZero() {
		return fmt.Errorf("%w: deadline", ErrMissingField)
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	return nil
}
