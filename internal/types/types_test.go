package types

import (
	"encoding/json"
	"testing"
)

func TestMessageHasToolCalls(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{
			name: "assistant with calls",
			msg:  AssistantMessage("running it", ToolCall{ID: "1", Name: "run_command"}),
			want: true,
		},
		{
			name: "assistant without calls",
			msg:  AssistantMessage("done"),
			want: false,
		},
		{
			name: "user message never has calls",
			msg:  UserMessage("list files"),
			want: false,
		},
		{
			name: "tool result never has calls",
			msg:  ToolResultMessage(ToolCall{ID: "1", Name: "run_command"}, "ok", false),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.HasToolCalls(); got != tt.want {
				t.Errorf("HasToolCalls() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageIsFinal(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"final answer", AssistantMessage("all done"), true},
		{"tool call pending", AssistantMessage("", ToolCall{ID: "1", Name: "x"}), false},
		{"empty text", AssistantMessage("   "), false},
		{"user input", UserMessage("hello"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.IsFinal(); got != tt.want {
				t.Errorf("IsFinal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolResultCorrelation(t *testing.T) {
	call := ToolCall{ID: "call_42", Name: "read_file", Input: map[string]any{"path": "go.mod"}}
	result := ToolResultMessage(call, "module shellmind", false)

	if result.ToolCallID != call.ID {
		t.Errorf("ToolCallID = %q, want %q", result.ToolCallID, call.ID)
	}
	if result.ToolName != call.Name {
		t.Errorf("ToolName = %q, want %q", result.ToolName, call.Name)
	}
	if result.Role != RoleTool {
		t.Errorf("Role = %q, want %q", result.Role, RoleTool)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	// Transcript serialization must preserve order and id correlation
	// exactly; this is the contract session persistence depends on.
	msgs := []Message{
		UserMessage("create a directory"),
		AssistantMessage("creating", ToolCall{ID: "a", Name: "run_command", Input: map[string]any{"command": "mkdir x"}}),
		ToolResultMessage(ToolCall{ID: "a", Name: "run_command"}, "", false),
		AssistantMessage("done"),
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got []Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got) != len(msgs) {
		t.Fatalf("length = %d, want %d", len(got), len(msgs))
	}
	for i := range msgs {
		if got[i].Role != msgs[i].Role {
			t.Errorf("msg %d: role = %q, want %q", i, got[i].Role, msgs[i].Role)
		}
	}
	if got[2].ToolCallID != "a" {
		t.Errorf("tool result lost correlation id: %q", got[2].ToolCallID)
	}
}
