// Package agent implements the control loop that turns a user request
// into LLM thinking steps, tool executions, and a final answer. One
// loop owns one ConversationState; the state machine is
// Thinking -> Routing -> Executing -> (AwaitingApproval | Diagnosing)
// with three terminal outcomes.
package agent

import (
	"os"
	"runtime"

	"github.com/google/uuid"

	"shellmind/internal/types"
)

// State names the loop's current phase, reported through the event sink.
type State string

const (
	StateThinking         State = "thinking"
	StateRouting          State = "routing"
	StateExecuting        State = "executing"
	StateAwaitingApproval State = "awaiting_approval"
	StateDiagnosing       State = "diagnosing"
	StateTerminated       State = "terminated"
)

// TerminationStatus classifies how a task ended.
type TerminationStatus string

const (
	TerminatedSuccess    TerminationStatus = "success"
	TerminatedFailure    TerminationStatus = "failure"
	TerminatedMaxRetries TerminationStatus = "max_retries"
)

// ConversationState is the single mutable record threaded through every
// step of one task. It has exactly one active mutator at a time: the
// loop that owns it.
type ConversationState struct {
	// SessionID identifies the task for persistence and logging.
	SessionID string

	// Role distinguishes the supervising session from spawned
	// sub-agents. Set by the task creator, never inferred.
	Role types.TaskRole

	// Messages is the append-only transcript. Insertion order is the
	// conversation order and is the LLM's entire context.
	Messages []types.Message

	// UserInput is the utterance that started this task.
	UserInput string

	// Snapshot holds environment facts refreshed each thinking step.
	Snapshot types.SystemSnapshot

	// RetryCount counts tool-execution failures, bounded by MaxRetries.
	RetryCount int
	MaxRetries int

	// ExecutionMode is accepted but always degrades to sequential
	// scheduling. See the scheduling notes on executeBatch.
	ExecutionMode types.ExecutionMode

	// PendingApproval is non-nil only while the loop is suspended
	// waiting for the human decision on a risky call.
	PendingApproval *types.ToolCall

	// LastError records the most recent execution failure. Cleared
	// when a later tool call in the same task succeeds.
	LastError string

	// LastDiagnostic holds the most recent diagnosis text, surfaced
	// with MaxRetries terminations.
	LastDiagnostic string

	// Persisted is the count of transcript messages already written
	// to the store, so a continued conversation never rewrites rows.
	Persisted int
}

// NewConversationState seeds a task with the user's utterance.
func NewConversationState(userInput string, role types.TaskRole, maxRetries int, mode types.ExecutionMode) *ConversationState {
	s := &ConversationState{
		SessionID:     uuid.NewString(),
		Role:          role,
		UserInput:     userInput,
		MaxRetries:    maxRetries,
		ExecutionMode: mode,
		Snapshot:      CaptureSnapshot(),
	}
	s.Messages = append(s.Messages, types.UserMessage(userInput))
	return s
}

// Append adds a message to the transcript.
func (s *ConversationState) Append(msg types.Message) {
	s.Messages = append(s.Messages, msg)
}

// NewTurn appends the next user utterance and resets the per-task
// failure tracking so each turn gets a fresh retry budget.
func (s *ConversationState) NewTurn(userInput string) {
	s.UserInput = userInput
	s.RetryCount = 0
	s.LastError = ""
	s.LastDiagnostic = ""
	s.PendingApproval = nil
	s.Messages = append(s.Messages, types.UserMessage(userInput))
}

// LastMessage returns the newest transcript entry.
func (s *ConversationState) LastMessage() (types.Message, bool) {
	if len(s.Messages) == 0 {
		return types.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// CaptureSnapshot reads the current environment facts. Called at the
// start of every thinking step so the system prompt stays current.
func CaptureSnapshot() types.SystemSnapshot {
	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	return types.SystemSnapshot{
		OS:         runtime.GOOS,
		Shell:      shell,
		WorkingDir: wd,
	}
}
