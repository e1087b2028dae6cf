// Package types provides shared type definitions used across shellmind packages.
// This package exists to break import cycles between agent, llm, and tools.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation transcript. It is a tagged
// union over Role: tool-call fields are only meaningful on assistant
// messages, and the tool-result fields only on tool messages. Messages
// are immutable once appended to a transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text,omitempty"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID correlates a tool-result message with the assistant
	// tool call that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID    string         `json:"id"`    // Unique ID for this tool use
	Name  string         `json:"name"`  // Tool name to invoke
	Input map[string]any `json:"input"` // Tool arguments
}

// UserMessage builds a user-authored message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// SystemMessage builds a system framing message. System messages are
// renewed every thinking step and never persisted to the transcript.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// AssistantMessage builds an assistant message, optionally carrying tool calls.
func AssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

// ToolResultMessage builds the result record for a single tool call.
func ToolResultMessage(call ToolCall, output string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Text:       output,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		IsError:    isError,
	}
}

// HasToolCalls reports whether this is an assistant message requesting
// at least one tool invocation.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsFinal reports whether this message terminates a task: an assistant
// message with text but no tool calls is the final answer.
func (m Message) IsFinal() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) == 0 && strings.TrimSpace(m.Text) != ""
}

// String returns a short human-readable form for logs.
func (m Message) String() string {
	switch {
	case m.Role == RoleTool:
		status := "ok"
		if m.IsError {
			status = "error"
		}
		return fmt.Sprintf("tool[%s %s]: %s", m.ToolName, status, truncate(m.Text, 80))
	case m.HasToolCalls():
		names := make([]string, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			names[i] = tc.Name
		}
		return fmt.Sprintf("%s: %s (calls: %s)", m.Role, truncate(m.Text, 80), strings.Join(names, ","))
	default:
		return fmt.Sprintf("%s: %s", m.Role, truncate(m.Text, 80))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TaskRole distinguishes the supervising session from spawned sub-agents.
// It is set explicitly by the task creator, never inferred from ambient
// process state.
type TaskRole string

const (
	RoleSupervisor TaskRole = "supervisor"
	RoleSubAgent   TaskRole = "subagent"
)

// ExecutionMode selects how tool calls inside one batch are scheduled.
// Parallel is accepted for forward compatibility but degrades to
// Sequential: sibling calls have no dependency model, so concurrent
// execution is not safe.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
)

// SystemSnapshot caches environment facts injected into the system prompt.
// It is refreshed at the start of each turn and is not authoritative
// elsewhere.
type SystemSnapshot struct {
	OS         string `json:"os"`
	Shell      string `json:"shell"`
	WorkingDir string `json:"working_dir"`
}
