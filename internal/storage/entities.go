package storage

import (
	"strings"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
)

type Task struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"userId"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Deadline    time.Time  `bson:"deadline"`
	Priority    string     `bson:"priority"`
	Status      string     `bson:"status"`
	IsDeleted   bool       `bson:"is_deleted"`
	DeletedAt   *time.Time `bson:"deletedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`

	Tags             []string           `bson:"tags"`
	ProjectID        string             `bson:"projectId,omitempty"`
	WorkspaceID      string             `bson:"workspaceId,omitempty"`
	ParentTaskID     string             `bson:"parentTaskId,omitempty"`
	Subtasks         []string           `bson:"subtasks"`
	Dependencies     []string           `bson:"dependencies"`
	EstimatedMinutes int                `bson:"estimatedTime"`
	SpentMinutes     int                `bson:"timeSpent"`
	Context          string             `bson:"context,omitempty"`
	Location         string             `bson:"location,omitempty"`
	Recurrence       *model.Recurrence  `bson:"recurrence,omitempty"`
	Comments         []model.Comment    `bson:"comments"`
	Attachments      []model.Attachment `bson:"attachments"`
	SnoozedUntil     *time.Time         `bson:"snoozedUntil,omitempty"`
	ArchivedAt       *time.Time         `bson:"archivedAt,omitempty"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty"`
}

// TaskFilter selects tasks. Zero-valued fields do not constrain the query.
// DeadlineFrom is inclusive and DeadlineBefore exclusive.
type TaskFilter struct {
	ID             string
	IDs            []string
	UserID         string
	ExcludeID      string
	ActiveOnly     bool
	ParentTaskID   string
	Statuses       []string
	Priorities     []string
	Tags           []string
	ProjectID      string
	WorkspaceID    string
	Context        string
	Search         string
	DeadlineFrom   *time.Time
	DeadlineBefore *time.Time
	Limit          int
}

// TaskPatch describes a mutation. Nil pointers leave fields untouched.
// single reports whether f names one task. Single-task lookups without an id
// match nothing.
func (f TaskFilter) single() bool {
	return strings.TrimSpace(f.ID) != ""
}

type TaskPatch struct {
	Title            *string
	Description      *string
	Deadline         *time.Time
	Priority         *string
	Status           *string
	IsDeleted        *bool
	DeletedAt        *time.Time
	ArchivedAt       *time.Time
	CompletedAt      *time.Time
	ClearCompletedAt bool
	SnoozedUntil     *time.Time
	Tags             *[]string
	ProjectID        *string
	WorkspaceID      *string
	Context          *string
	Location         *string
	EstimatedMinutes *int
	AddSpentMinutes  int
	AppendSubtask    string
	AppendComment    *model.Comment
	UpdatedAt        time.Time
}

// Apply mutates in according to the patch. Stores without native update
// operators use it to implement find-and-update.
func (p TaskPatch) Apply(in *Task) {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Deadline != nil {
		in.Deadline = *p.Deadline
	}
	if p.Priority != nil {
		in.Priority = *p.Priority
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.IsDeleted != nil {
		in.IsDeleted = *p.IsDeleted
	}
	if p.DeletedAt != nil {
		in.DeletedAt = copyTime(p.DeletedAt)
	}
	if p.ArchivedAt != nil {
		in.ArchivedAt = copyTime(p.ArchivedAt)
	}
	if p.ClearCompletedAt {
		in.CompletedAt = nil
	}
	if p.CompletedAt != nil {
		in.CompletedAt = copyTime(p.CompletedAt)
	}
	if p.SnoozedUntil != nil {
		in.SnoozedUntil = copyTime(p.SnoozedUntil)
	}
	if p.Tags != nil {
		in.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.ProjectID != nil {
		in.ProjectID = *p.ProjectID
	}
	if p.WorkspaceID != nil {
		in.WorkspaceID = *p.WorkspaceID
	}
	if p.Context != nil {
		in.Context = *p.Context
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.EstimatedMinutes != nil {
		in.EstimatedMinutes = *p.EstimatedMinutes
	}
	in.SpentMinutes += p.AddSpentMinutes
	if p.AppendSubtask != "" {
		in.Subtasks = append(in.Subtasks, p.AppendSubtask)
	}
	if p.AppendComment != nil {
		in.Comments = append(in.Comments, *p.AppendComment)
	}
	if !p.UpdatedAt.IsZero() {
		in.UpdatedAt = p.UpdatedAt
	}
}

type Achievement struct {
	Type       string    `bson:"type"`
	Value      int       `bson:"value"`
	UnlockedAt time.Time `bson:"unlockedAt"`
}

type UserStats struct {
	UserID              string        `bson:"_id"`
	CurrentStreak       int           `bson:"currentStreak"`
	LongestStreak       int           `bson:"longestStreak"`
	TotalTasksCompleted int           `bson:"totalTasksCompleted"`
	TotalTasksCreated   int           `bson:"totalTasksCreated"`
	LastActivityDate    string        `bson:"lastActivityDate"`
	Achievements        []Achievement `bson:"achievements"`
	UpdatedAt           time.Time     `bson:"updatedAt"`
}

type User struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name"`
	Image     string    `bson:"image"`
	Theme     string    `bson:"theme"`
	CreatedAt time.Time `bson:"createdAt"`
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
