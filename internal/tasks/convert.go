package tasks

import (
	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

func toModel(in storage.Task) model.Task {
	out := model.Task{
		ID:               in.ID,
		UserID:           in.UserID,
		Title:            in.Title,
		Description:      in.Description,
		Deadline:         in.Deadline.UTC(),
		Priority:         model.Priority(in.Priority),
		Status:           model.Status(in.Status),
		IsDeleted:        in.IsDeleted,
		DeletedAt:        in.DeletedAt,
		CreatedAt:        in.CreatedAt.UTC(),
		UpdatedAt:        in.UpdatedAt.UTC(),
		Tags:             in.Tags,
		ProjectID:        in.ProjectID,
		WorkspaceID:      in.WorkspaceID,
		ParentTaskID:     in.ParentTaskID,
		Subtasks:         in.Subtasks,
		Dependencies:     in.Dependencies,
		EstimatedMinutes: in.EstimatedMinutes,
		SpentMinutes:     in.SpentMinutes,
		Context:          in.Context,
		Location:         in.Location,
		Recurrence:       in.Recurrence,
		Comments:         in.Comments,
		Attachments:      in.Attachments,
		SnoozedUntil:     in.SnoozedUntil,
		ArchivedAt:       in.ArchivedAt,
		CompletedAt:      in.CompletedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Comments == nil {
		out.Comments = []model.Comment{}
	}
	if out.Attachments == nil {
		out.Attachments = []model.Attachment{}
	}
	return out
}

func toModels(in []storage.Task) []model.Task {
	out := make([]model.Task, 0, len(in))
	for _, t := range in {
		out = append(out, toModel(t))
	}
	return out
}

func toStorage(in model.Task) storage.Task {
	return storage.Task{
		ID:               in.ID,
		UserID:           in.UserID,
		Title:            in.Title,
		Description:      in.Description,
		Deadline:         in.Deadline,
		Priority:         string(in.Priority),
		Status:           string(in.Status),
		IsDeleted:        in.IsDeleted,
		DeletedAt:        in.DeletedAt,
		CreatedAt:        in.CreatedAt,
		UpdatedAt:        in.UpdatedAt,
		Tags:             in.Tags,
		ProjectID:        in.ProjectID,
		WorkspaceID:      in.WorkspaceID,
		ParentTaskID:     in.ParentTaskID,
		Subtasks:         in.Subtasks,
		Dependencies:     in.Dependencies,
		EstimatedMinutes: in.EstimatedMinutes,
		SpentMinutes:     in.SpentMinutes,
		Context:          in.Context,
		Location:         in.Location,
		Recurrence:       in.Recurrence,
		Comments:         in.Comments,
		Attachments:      in.Attachments,
		SnoozedUntil:     in.SnoozedUntil,
		ArchivedAt:       in.ArchivedAt,
		CompletedAt:      in.CompletedAt,
	}
}

func priorityPtr(p *model.Priority) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func strPtr(s string) *string {
	return &s
}

func statusStrings(in []model.Status) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}
