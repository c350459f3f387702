package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

var (
	ErrValidation        = errors.New("tasks: validation failed")
	ErrDeadlineConflict  = errors.New("tasks: deadline conflict")
	ErrNotFound          = errors.New("tasks: not found")
	ErrInvalidTransition = model.ErrInvalidTransition
	ErrStore             = errors.New("tasks: store failure")
)

// DeadlineConflictError reports the minute already taken by another active task.
type DeadlineConflictError struct {
	Minute time.Time
}

func (e *DeadlineConflictError) Error() string {
	return fmt.Sprintf("a task already exists at %s; please choose a different time", e.Minute.UTC().Format("2006-01-02 15:04"))
}

func (e *DeadlineConflictError) Is(target error) bool {
	return target == ErrDeadlineConflict
}

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("tasks: store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr maps a repository error onto the engine's error kinds.
func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return &StoreError{Op: op, Err: err}
}
