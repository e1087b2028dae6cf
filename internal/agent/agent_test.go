package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"shellmind/internal/llm"
	"shellmind/internal/safety"
	"shellmind/internal/store"
	"shellmind/internal/tools"
	"shellmind/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()

	r.MustRegister(&tools.Tool{
		Name:        "echo",
		Description: "Echoes text back.",
		Category:    tools.CategorySystem,
		Schema: tools.ToolSchema{
			Required:   []string{"text"},
			Properties: map[string]tools.Property{"text": {Type: "string"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	})

	r.MustRegister(&tools.Tool{
		Name:        "boom",
		Description: "Always fails.",
		Category:    tools.CategorySystem,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("exit status 1")
		},
	})

	r.MustRegister(&tools.Tool{
		Name:            "run_shell",
		Description:     "Pretends to run a command.",
		Category:        tools.CategoryShell,
		ShellCommandArg: "command",
		Schema: tools.ToolSchema{
			Required:   []string{"command"},
			Properties: map[string]tools.Property{"command": {Type: "string"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "ran: " + args["command"].(string), nil
		},
	})

	return r
}

func newTestAgent(t *testing.T, mock *llm.MockClient, opts func(*Options)) *Agent {
	t.Helper()
	o := Options{
		LLM:        mock,
		Registry:   testRegistry(t),
		MaxRetries: 3,
	}
	if opts != nil {
		opts(&o)
	}
	a, err := New(o)
	require.NoError(t, err)
	return a
}

func call(id, name string, input map[string]any) types.ToolCall {
	return types.ToolCall{ID: id, Name: name, Input: input}
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Registry: tools.NewRegistry()})
	assert.Error(t, err)

	_, err = New(Options{LLM: &llm.MockClient{}})
	assert.Error(t, err)

	_, err = New(Options{LLM: &llm.MockClient{}, Registry: tools.NewRegistry()})
	assert.Error(t, err, "empty registry must be rejected")
}

func TestRunDirectAnswer(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{{Text: "hello there"}},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("say hi", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, "hello there", result.FinalText)

	// The system prompt is delivered out of band, never as a
	// transcript message.
	require.Len(t, mock.ChatCalls, 1)
	assert.NotEmpty(t, mock.ChatCalls[0].SystemPrompt)
	for _, msg := range state.Messages {
		assert.NotEqual(t, types.RoleSystem, msg.Role)
	}
	assert.NotEmpty(t, mock.ChatCalls[0].Tools)
}

func TestRunToolThenAnswer(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{Text: "let me check", ToolCalls: []types.ToolCall{
				call("c1", "echo", map[string]any{"text": "pong"}),
			}},
			{Text: "it said pong"},
		},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("ping", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, "it said pong", result.FinalText)

	// user, assistant(call), tool result, assistant final
	require.Len(t, state.Messages, 4)
	assert.Equal(t, types.RoleTool, state.Messages[2].Role)
	assert.Equal(t, "pong", state.Messages[2].Text)
	assert.Equal(t, "c1", state.Messages[2].ToolCallID)
	assert.False(t, state.Messages[2].IsError)

	// The second thinking step saw the result in its history.
	require.Len(t, mock.ChatCalls, 2)
	assert.Len(t, mock.ChatCalls[1].History, 3)
}

func TestRunUnknownToolIsNotCharged(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "teleport", nil)}},
			{Text: "sorry"},
		},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)

	assert.Equal(t, 0, state.RetryCount)
	assert.Empty(t, state.LastError)
	assert.Empty(t, mock.CompleteCalls, "planning errors must not trigger diagnosis")

	res := state.Messages[2]
	assert.True(t, res.IsError)
	assert.Equal(t, "teleport is not a valid tool", res.Text)
}

func TestRunSchemaMismatchIsNotCharged(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "echo", map[string]any{"text": 42.0})}},
			{Text: "fixed"},
		},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, 0, state.RetryCount)
	assert.Empty(t, state.LastError)
	assert.True(t, state.Messages[2].IsError)
}

func TestRunExecutionFailureDiagnosesAndRecovers(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "boom", nil)}},
			{Text: "recovered"},
		},
		CompleteResponses: []string{"the command exited nonzero; try another flag"},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)

	assert.Equal(t, 1, state.RetryCount)
	assert.Equal(t, "exit status 1", state.LastError)
	require.Len(t, mock.CompleteCalls, 1)
	assert.Contains(t, mock.CompleteCalls[0], "exit status 1")
	assert.Equal(t, "the command exited nonzero; try another flag", state.LastDiagnostic)

	// user, assistant(call), error result, diagnosis, assistant final
	require.Len(t, state.Messages, 5)
	assert.Equal(t, types.RoleAssistant, state.Messages[3].Role)
}

func TestRunRetryBudgetExhaustion(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "boom", nil)}},
			{ToolCalls: []types.ToolCall{call("c2", "boom", nil)}},
		},
		CompleteResponses: []string{"still broken"},
	}
	a := newTestAgent(t, mock, func(o *Options) { o.MaxRetries = 2 })
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedMaxRetries, result.Status)
	assert.Equal(t, "exit status 1", result.LastError)
	assert.Equal(t, "still broken", result.Diagnostic)
	assert.Equal(t, 2, state.RetryCount)

	// Exactly one diagnosis: the terminal failure skips straight to
	// termination without another analysis round.
	assert.Len(t, mock.CompleteCalls, 1)
}

func TestRunSkipDiagnosis(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "boom", nil)}},
			{Text: "moved on"},
		},
	}
	a := newTestAgent(t, mock, func(o *Options) { o.SkipDiagnosis = true })
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, 1, state.RetryCount)
	assert.Empty(t, mock.CompleteCalls)
	assert.Empty(t, state.LastDiagnostic)
}

func TestRunMaxRetriesOneTerminatesWithoutDiagnosis(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "boom", nil)}},
		},
	}
	a := newTestAgent(t, mock, func(o *Options) { o.MaxRetries = 1 })
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedMaxRetries, result.Status)
	assert.Empty(t, mock.CompleteCalls)
}

func TestRunSiblingSuccessClearsFailure(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{
				call("c1", "boom", nil),
				call("c2", "echo", map[string]any{"text": "still here"}),
			}},
			{Text: "partial success"},
		},
	}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)

	// The failed call charged a retry, but the sibling ran anyway and
	// its success cleared the error, so no diagnosis happened.
	assert.Equal(t, 1, state.RetryCount)
	assert.Empty(t, state.LastError)
	assert.Empty(t, mock.CompleteCalls)

	// Results appear in request order.
	assert.True(t, state.Messages[2].IsError)
	assert.Equal(t, "c1", state.Messages[2].ToolCallID)
	assert.False(t, state.Messages[3].IsError)
	assert.Equal(t, "c2", state.Messages[3].ToolCallID)
}

func TestRunTransportErrorBecomesFinalMessage(t *testing.T) {
	mock := &llm.MockClient{ChatErr: errors.New("connection refused")}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)

	// The wrapped error reads as a plain final answer, so the task
	// terminates Success with the error visible in the text.
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, "Error: connection refused", result.FinalText)
}

func TestRunEmptyResponseFallback(t *testing.T) {
	mock := &llm.MockClient{}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, fallbackText, result.FinalText)
}

func TestRunApprovalDeniedAbortsBatch(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{
				call("c1", "run_shell", map[string]any{"command": "sudo rm -rf /"}),
				call("c2", "echo", map[string]any{"text": "never runs"}),
			}},
			{Text: "understood"},
		},
	}

	var events []Event
	var requests []ApprovalRequest
	a := newTestAgent(t, mock, func(o *Options) {
		o.Sink = SinkFunc(func(e Event) { events = append(events, e) })
		o.Approver = ApproverFunc(func(ctx context.Context, req ApprovalRequest) (bool, error) {
			requests = append(requests, req)
			return false, nil
		})
	})
	state := a.NewState("wipe it", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)

	require.Len(t, requests, 1)
	assert.Equal(t, "sudo rm -rf /", requests[0].Command)
	assert.Equal(t, safety.VerdictDangerous, requests[0].Classification.Verdict)

	// Denial: one error result for the denied call, one aborted-call
	// result for the skipped sibling, no retry charged, suspension
	// released.
	require.Len(t, state.Messages, 5)
	assert.Equal(t, "c1", state.Messages[2].ToolCallID)
	assert.True(t, state.Messages[2].IsError)
	assert.Equal(t, deniedResult, state.Messages[2].Text)
	assert.Equal(t, "c2", state.Messages[3].ToolCallID)
	assert.True(t, state.Messages[3].IsError)
	assert.Equal(t, abortedResult, state.Messages[3].Text)
	assert.Equal(t, 0, state.RetryCount)
	assert.Nil(t, state.PendingApproval)

	// Every call the assistant issued has a matching result, so the
	// next request is well-formed for the provider.
	results := map[string]bool{}
	for _, m := range state.Messages {
		if m.Role == types.RoleTool {
			results[m.ToolCallID] = true
		}
	}
	for _, c := range state.Messages[1].ToolCalls {
		assert.True(t, results[c.ID], "call %s has no result", c.ID)
	}

	var sawApproval, sawAwaiting bool
	for _, e := range events {
		if e.Kind == EventApproval {
			sawApproval = true
			assert.Equal(t, safety.VerdictDangerous, e.Verdict)
		}
		if e.Kind == EventState && e.State == StateAwaitingApproval {
			sawAwaiting = true
		}
	}
	assert.True(t, sawApproval)
	assert.True(t, sawAwaiting)
}

func TestRunApprovalGrantedExecutes(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{
				call("c1", "run_shell", map[string]any{"command": "sudo rm -rf /tmp/junk"}),
			}},
			{Text: "done"},
		},
	}
	a := newTestAgent(t, mock, func(o *Options) {
		o.Approver = ApproverFunc(func(ctx context.Context, req ApprovalRequest) (bool, error) {
			return true, nil
		})
	})
	state := a.NewState("clean up", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, "ran: sudo rm -rf /tmp/junk", state.Messages[2].Text)
	assert.False(t, state.Messages[2].IsError)
}

func TestRunAutoApproveModerate(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{
				call("c1", "run_shell", map[string]any{"command": "sudo apt install jq"}),
			}},
			{Text: "installed"},
		},
	}
	asked := false
	a := newTestAgent(t, mock, func(o *Options) {
		o.AutoApproveModerate = true
		o.Approver = ApproverFunc(func(ctx context.Context, req ApprovalRequest) (bool, error) {
			asked = true
			return false, nil
		})
	})
	state := a.NewState("install jq", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.False(t, asked, "moderate commands skip the gate when auto-approved")
	assert.False(t, state.Messages[2].IsError)
}

func TestRunSafeCommandSkipsGate(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{
				call("c1", "run_shell", map[string]any{"command": "ls -la"}),
			}},
			{Text: "listed"},
		},
	}
	// DenyAll is the default approver; a safe command must never
	// reach it.
	a := newTestAgent(t, mock, nil)
	state := a.NewState("list files", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, "ran: ls -la", state.Messages[2].Text)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &llm.MockClient{ChatResponses: []*llm.LLMToolResponse{{Text: "never"}}}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("go", types.RoleSupervisor)

	_, err := a.Run(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPersistsTranscript(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer st.Close()

	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "echo", map[string]any{"text": "saved"})}},
			{Text: "all saved"},
		},
	}
	a := newTestAgent(t, mock, func(o *Options) { o.Store = st })
	state := a.NewState("persist me", types.RoleSupervisor)

	_, err = a.Run(context.Background(), state)
	require.NoError(t, err)

	loaded, err := st.LoadMessages(state.SessionID)
	require.NoError(t, err)
	require.Len(t, loaded, len(state.Messages))
	for i, msg := range loaded {
		assert.Equal(t, state.Messages[i].Role, msg.Role)
		assert.Equal(t, state.Messages[i].Text, msg.Text)
	}
}

func TestSubAgentSystemFraming(t *testing.T) {
	mock := &llm.MockClient{ChatResponses: []*llm.LLMToolResponse{{Text: "ok"}}}
	a := newTestAgent(t, mock, nil)
	state := a.NewState("delegated work", types.RoleSubAgent)

	_, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, mock.ChatCalls, 1)
	assert.Contains(t, mock.ChatCalls[0].SystemPrompt, "sub-agent")
}

func TestRunContinuedConversation(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer st.Close()

	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{ToolCalls: []types.ToolCall{call("c1", "boom", nil)}},
			{Text: "first answer"},
			{Text: "second answer"},
		},
		CompleteResponses: []string{"transient failure"},
	}
	a := newTestAgent(t, mock, func(o *Options) { o.Store = st })
	state := a.NewState("first", types.RoleSupervisor)

	result, err := a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, TerminatedSuccess, result.Status)
	assert.Equal(t, 1, state.RetryCount)

	// The next turn reuses the transcript but gets a fresh budget.
	state.NewTurn("second")
	assert.Equal(t, 0, state.RetryCount)
	assert.Empty(t, state.LastError)

	result, err = a.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "second answer", result.FinalText)

	// Both turns share one stored session with no duplicated rows.
	loaded, err := st.LoadMessages(state.SessionID)
	require.NoError(t, err)
	assert.Len(t, loaded, len(state.Messages))
}

func TestManagerRunTasks(t *testing.T) {
	mock := &llm.MockClient{
		ChatResponses: []*llm.LLMToolResponse{
			{Text: "done"}, {Text: "done"}, {Text: "done"},
		},
	}
	a := newTestAgent(t, mock, nil)
	m := NewManager(a, 2)

	inputs := make([]string, 3)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("task %d", i)
	}

	results, err := m.RunTasks(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, TerminatedSuccess, r.Status)
		assert.Equal(t, "done", r.FinalText)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		msg  types.Message
		want Route
	}{
		{"tool calls", types.AssistantMessage("working", call("c1", "echo", nil)), RouteExecute},
		{"final text", types.AssistantMessage("answer"), RouteFinal},
		{"empty", types.AssistantMessage(""), RouteError},
		{"whitespace only", types.AssistantMessage("   \n"), RouteError},
		{"calls with empty text", types.AssistantMessage("", call("c1", "echo", nil)), RouteExecute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.msg))
		})
	}
}
