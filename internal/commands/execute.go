package commands

import "fmt"

type Result struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handlers struct {
	Add        func(AddArgs) (Result, error)
	Done       func(TargetArgs) (Result, error)
	Archive    func(TargetArgs) (Result, error)
	Snooze     func(SnoozeArgs) (Result, error)
	Show       func(ShowArgs) (Result, error)
	Reschedule func(RescheduleArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing("done")
		}
		return handlers.Done(*cmd.Done)
	case TypeArchive:
		if handlers.Archive == nil {
			return Result{}, missing("archive")
		}
		return handlers.Archive(*cmd.Archive)
	case TypeSnooze:
		if handlers.Snooze == nil {
			return Result{}, missing("snooze")
		}
		return handlers.Snooze(*cmd.Snooze)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	case TypeReschedule:
		if handlers.Reschedule == nil {
			return Result{}, missing("reschedule")
		}
		return handlers.Reschedule(*cmd.Reschedule)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
