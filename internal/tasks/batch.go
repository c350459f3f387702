package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

type BatchOperation string

const (
	BatchDelete  BatchOperation = "delete"
	BatchArchive BatchOperation = "archive"
	BatchUpdate  BatchOperation = "update"
	BatchMove    BatchOperation = "move"
)

func (op BatchOperation) IsValid() bool {
	switch op {
	case BatchDelete, BatchArchive, BatchUpdate, BatchMove:
		return true
	default:
		return false
	}
}

// BatchUpdates is the patch applied verbatim by the update operation.
type BatchUpdates struct {
	Title            *string         `json:"title,omitempty"`
	Description      *string         `json:"description,omitempty"`
	Deadline         *time.Time      `json:"deadline,omitempty"`
	Priority         *model.Priority `json:"priority,omitempty"`
	Tags             *[]string       `json:"tags,omitempty"`
	Context          *string         `json:"context,omitempty"`
	Location         *string         `json:"location,omitempty"`
	EstimatedMinutes *int            `json:"estimatedTime,omitempty"`
}

func (u BatchUpdates) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Deadline == nil && u.Priority == nil &&
		u.Tags == nil && u.Context == nil && u.Location == nil && u.EstimatedMinutes == nil
}

type BatchRequest struct {
	TaskIDs     []string       `json:"taskIds"`
	Operation   BatchOperation `json:"operation"`
	Updates     *BatchUpdates  `json:"updates,omitempty"`
	ProjectID   string         `json:"projectId,omitempty"`
	WorkspaceID string         `json:"workspaceId,omitempty"`
}

// Validate checks the request shape. It never touches the store.
func (r BatchRequest) Validate() error {
	if len(r.TaskIDs) == 0 {
		return validationf("taskIds is required")
	}
	if r.Operation == "" {
		return validationf("operation is required")
	}
	if !r.Operation.IsValid() {
		return validationf("unknown operation %q", r.Operation)
	}
	if r.Operation == BatchUpdate {
		if r.Updates == nil || r.Updates.IsEmpty() {
			return validationf("updates are required for the update operation")
		}
		u := r.Updates
		if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
			return validationError(model.ErrMissingField)
		}
		if u.Priority != nil && !u.Priority.IsValid() {
			return validationError(model.ErrInvalidPriority)
		}
		if u.Deadline != nil && u.Deadline.IsZero() {
			return validationf("deadline must be set")
		}
		if u.EstimatedMinutes != nil && *u.EstimatedMinutes < 0 {
			return validationf("estimated time must not be negative")
		}
	}
	return nil
}

// Batch applies one operation to the active tasks among req.TaskIDs owned by
// userID, in a single bulk store call. Ids the caller does not own are skipped.
// The update operation does not re-check deadline collisions.
func (e *Engine) Batch(ctx context.Context, userID string, req BatchRequest) (int, error) {
	if err := requireUser(userID); err != nil {
		return 0, err
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	filter := storage.TaskFilter{IDs: req.TaskIDs, UserID: userID, ActiveOnly: true}
	now := e.now().UTC()
	patch := storage.TaskPatch{UpdatedAt: now}

	switch req.Operation {
	case BatchDelete:
		deleted := true
		patch.IsDeleted = &deleted
		patch.DeletedAt = &now
	case BatchArchive:
		filter.Statuses = []string{string(model.StatusPending), string(model.StatusDone), string(model.StatusNotNeeded)}
		patch.Status = strPtr(string(model.StatusArchived))
		patch.ArchivedAt = &now
		patch.ClearCompletedAt = true
	case BatchUpdate:
		u := req.Updates
		patch.Title = u.Title
		patch.Description = u.Description
		if u.Deadline != nil {
			d := u.Deadline.UTC()
			patch.Deadline = &d
		}
		patch.Priority = priorityPtr(u.Priority)
		if u.Tags != nil {
			tags := cleanTags(*u.Tags)
			patch.Tags = &tags
		}
		patch.Context = u.Context
		patch.Location = u.Location
		patch.EstimatedMinutes = u.EstimatedMinutes
	case BatchMove:
		if req.ProjectID == "" && req.WorkspaceID == "" {
			return 0, nil
		}
		if req.ProjectID != "" {
			patch.ProjectID = strPtr(req.ProjectID)
		}
		if req.WorkspaceID != "" {
			patch.WorkspaceID = strPtr(req.WorkspaceID)
		}
	}

	n, err := e.repo.UpdateTasks(ctx, filter, patch)
	if err != nil {
		return 0, &StoreError{Op: "batch " + string(req.Operation), Err: err}
	}
	return int(n), nil
}
