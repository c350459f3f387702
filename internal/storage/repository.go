package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type TaskStore interface {
	InsertTask(ctx context.Context, in Task) error
	FindTask(ctx context.Context, filter TaskFilter) (Task, error)
	FindTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	// FindOneAndUpdateTask applies patch to the first match and returns the
	// updated record, or ErrNotFound.
	FindOneAndUpdateTask(ctx context.Context, filter TaskFilter, patch TaskPatch) (Task, error)
	// UpdateTasks applies patch to every match and returns how many were modified.
	UpdateTasks(ctx context.Context, filter TaskFilter, patch TaskPatch) (int64, error)
}

type StatsStore interface {
	GetStats(ctx context.Context, userID string) (UserStats, error)
	InsertStats(ctx context.Context, in UserStats) error
	UpdateStats(ctx context.Context, in UserStats) error
}

type UserStore interface {
	UpsertUser(ctx context.Context, in User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
}

type Repository interface {
	TaskStore
	StatsStore
	UserStore
	Close() error
}
