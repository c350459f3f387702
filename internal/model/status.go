package model

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("model: invalid status transition")

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusDone, StatusNotNeeded, StatusArchived},
	StatusDone:      {StatusPending, StatusArchived},
	StatusNotNeeded: {StatusPending, StatusArchived},
}

func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition for any move not in the table,
// including a move to the current status.
func CheckTransition(from, to Status) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
