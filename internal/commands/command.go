package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/contravault/internal/model"
)

type Type string

const (
	TypeAdd        Type = "add"
	TypeDone       Type = "done"
	TypeArchive    Type = "archive"
	TypeSnooze     Type = "snooze"
	TypeShow       Type = "show"
	TypeReschedule Type = "reschedule"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs is "add <title> [@when] [!priority] [#tag ...]". When stays
// unresolved until a handler knows the current time.
type AddArgs struct {
	Title    string
	When     string
	Priority model.Priority
	Tags     []string
}

type TargetArgs struct {
	Target string
}

type SnoozeArgs struct {
	Target string
	For    string
}

type ShowArgs struct {
	Subject string
	Tag     string
}

type RescheduleArgs struct {
	Target string
	When   string
}

type Command struct {
	Type       Type
	Raw        string
	Add        *AddArgs
	Done       *TargetArgs
	Archive    *TargetArgs
	Snooze     *SnoozeArgs
	Show       *ShowArgs
	Reschedule *RescheduleArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone, TypeArchive:
		return parseTarget(input, Type(head), args)
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeReschedule:
		return parseReschedule(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			if out.When != "" {
				return Command{}, invalid("add accepts a single @when")
			}
			out.When = arg[1:]
		case strings.HasPrefix(arg, "!") && len(arg) > 1:
			p := model.Priority(strings.ToLower(arg[1:]))
			if !p.IsValid() {
				return Command{}, invalid("unknown priority %q", arg[1:])
			}
			out.Priority = p
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			out.Tags = append(out.Tags, arg[1:])
		default:
			words = append(words, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(words, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, kind Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires exactly one task id", kind)
	}
	target := &TargetArgs{Target: args[0]}
	cmd := Command{Type: kind, Raw: raw}
	if kind == TypeDone {
		cmd.Done = target
	} else {
		cmd.Archive = target
	}
	return cmd, nil
}

func parseSnooze(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("snooze requires target and duration")
	}
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{Target: args[0], For: strings.Join(args[1:], " ")}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires a subject")
	}
	subject := strings.ToLower(args[0])
	tag := ""
	for _, arg := range args[1:] {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "tag:"):
			tag = strings.TrimSpace(arg[len("tag:"):])
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			tag = arg[1:]
		}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Tag: tag}}, nil
}

func parseReschedule(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("reschedule requires target and time")
	}
	return Command{Type: TypeReschedule, Raw: raw, Reschedule: &RescheduleArgs{Target: args[0], When: strings.Join(args[1:], " ")}}, nil
}
