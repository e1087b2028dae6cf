package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when looking up an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolAlreadyRegistered is returned when registering a duplicate name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")
)

// ArgError describes an argument that failed schema validation.
// It distinguishes missing required arguments from type mismatches so
// the loop can report precise errors back to the model.
type ArgError struct {
	Tool   string
	Arg    string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("tool %q: argument %q %s", e.Tool, e.Arg, e.Reason)
}

func missingArg(tool, arg string) *ArgError {
	return &ArgError{Tool: tool, Arg: arg, Reason: "is required"}
}

func typeMismatch(tool, arg, want string, got any) *ArgError {
	return &ArgError{Tool: tool, Arg: arg, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
