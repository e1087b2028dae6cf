package agent

import (
	"shellmind/internal/safety"
	"shellmind/internal/types"
)

// EventKind tags progress events emitted to the host.
type EventKind string

const (
	// EventState marks a phase transition.
	EventState EventKind = "state"

	// EventMessage reports a message appended to the transcript.
	EventMessage EventKind = "message"

	// EventToolStart and EventToolEnd bracket one tool execution.
	EventToolStart EventKind = "tool_start"
	EventToolEnd   EventKind = "tool_end"

	// EventApproval reports that the loop is suspended on a risky call.
	EventApproval EventKind = "approval"

	// EventTerminated carries the final result.
	EventTerminated EventKind = "terminated"
)

// Event is the structured progress record emitted after every step.
// Observational only: hosts must never feed data back into the loop
// except through the approval gate and the next task's user input.
type Event struct {
	Kind  EventKind
	State State

	// Message is set on EventMessage.
	Message *types.Message

	// Call is set on tool and approval events.
	Call *types.ToolCall

	// Verdict and Warnings are set on EventApproval.
	Verdict  safety.Verdict
	Warnings []string

	// DurationMs and Err are set on EventToolEnd.
	DurationMs int64
	Err        string

	// Result is set on EventTerminated.
	Result *Result
}

// Sink receives progress events. Implementations must not block for
// long; the loop emits synchronously.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }
