package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shellmind/internal/config"
	"shellmind/internal/logging"
	"shellmind/internal/prompt"
	"shellmind/internal/safety"
	"shellmind/internal/store"
	"shellmind/internal/tools"
	"shellmind/internal/types"
)

// fallbackText is the synthesized assistant message for a degenerate
// provider response (no text, no tool calls). It must be non-empty so
// the router is never stalled on an ambiguous message.
const fallbackText = "I could not produce a next step for this request. Please rephrase or provide more detail."

// Result is the terminal outcome of one task.
type Result struct {
	Status     TerminationStatus
	FinalText  string
	LastError  string
	Diagnostic string
}

// Options configures an Agent.
type Options struct {
	LLM        types.LLMClient
	Registry   *tools.Registry
	Classifier *safety.Classifier
	Prompts    *prompt.Library

	// Approver handles risky-call suspensions. Defaults to DenyAll.
	Approver Approver

	// Sink receives progress events. Defaults to NopSink.
	Sink Sink

	// Store, when set, persists every appended message.
	Store *store.Store

	// MaxRetries bounds the diagnose-and-retry cycle.
	MaxRetries int

	// ExecutionMode is accepted but degrades to sequential.
	ExecutionMode types.ExecutionMode

	// AutoApproveModerate skips the gate for moderate-risk commands.
	AutoApproveModerate bool

	// SkipDiagnosis disables the error-analysis step; failures loop
	// straight back to thinking.
	SkipDiagnosis bool

	// ToolTimeout bounds each tool execution.
	ToolTimeout time.Duration
}

// Agent drives the control loop. Safe to share across tasks: all
// per-task mutation lives in ConversationState.
type Agent struct {
	llm        types.LLMClient
	registry   *tools.Registry
	classifier *safety.Classifier
	prompts    *prompt.Library
	approver   Approver
	sink       Sink
	store      *store.Store

	maxRetries          int
	execMode            types.ExecutionMode
	autoApproveModerate bool
	skipDiagnosis       bool
	toolTimeout         time.Duration
}

// New validates options and builds an Agent. An empty registry is an
// unrecoverable configuration error.
func New(opts Options) (*Agent, error) {
	if opts.LLM == nil {
		return nil, fmt.Errorf("agent: LLM client is required")
	}
	if opts.Registry == nil || opts.Registry.Count() == 0 {
		return nil, fmt.Errorf("agent: capability registry is empty")
	}
	if opts.Classifier == nil {
		opts.Classifier = safety.NewClassifier()
	}
	if opts.Prompts == nil {
		lib, err := prompt.NewLibrary("")
		if err != nil {
			return nil, err
		}
		opts.Prompts = lib
	}
	if opts.Approver == nil {
		opts.Approver = DenyAll
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.MaxRetries < config.MinMaxRetries || opts.MaxRetries > config.MaxMaxRetries {
		opts.MaxRetries = config.DefaultMaxRetries
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = 60 * time.Second
	}

	return &Agent{
		llm:                 opts.LLM,
		registry:            opts.Registry,
		classifier:          opts.Classifier,
		prompts:             opts.Prompts,
		approver:            opts.Approver,
		sink:                opts.Sink,
		store:               opts.Store,
		maxRetries:          opts.MaxRetries,
		execMode:            opts.ExecutionMode,
		autoApproveModerate: opts.AutoApproveModerate,
		skipDiagnosis:       opts.SkipDiagnosis,
		toolTimeout:         opts.ToolTimeout,
	}, nil
}

// NewState seeds a ConversationState for this agent's configuration.
func (a *Agent) NewState(userInput string, role types.TaskRole) *ConversationState {
	return NewConversationState(userInput, role, a.maxRetries, a.execMode)
}

// RunWith runs one task with a per-task approver and sink, leaving the
// agent's defaults untouched. Interactive hosts use this to route
// approvals and events into their own UI loop.
func (a *Agent) RunWith(ctx context.Context, state *ConversationState, approver Approver, sink Sink) (*Result, error) {
	clone := *a
	if approver != nil {
		clone.approver = approver
	}
	if sink != nil {
		clone.sink = sink
	}
	return clone.Run(ctx, state)
}

// Run drives the state machine to a terminal state. The only errors
// that escape are cancellation and persistence faults; every task
// failure is reported as a Result.
func (a *Agent) Run(ctx context.Context, state *ConversationState) (*Result, error) {
	if a.store != nil {
		if err := a.store.CreateSession(state.SessionID, firstLine(state.UserInput)); err != nil {
			return nil, err
		}
		// Persist any messages appended since the last run, seed
		// included.
		for seq := state.Persisted; seq < len(state.Messages); seq++ {
			if err := a.store.AppendMessage(state.SessionID, seq, state.Messages[seq]); err != nil {
				return nil, err
			}
			state.Persisted = seq + 1
		}
	}

	logging.Loop("task started: session=%s role=%s input=%q", state.SessionID, state.Role, firstLine(state.UserInput))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Thinking
		a.emitState(StateThinking)
		msg := a.think(ctx, state)
		a.record(state, msg)

		// Routing
		a.emitState(StateRouting)
		switch Decide(msg) {
		case RouteFinal:
			return a.terminate(state, TerminatedSuccess, msg.Text), nil

		case RouteError:
			logging.Loop("degenerate assistant message, terminating: session=%s", state.SessionID)
			return a.terminate(state, TerminatedFailure, ""), nil

		case RouteExecute:
			a.emitState(StateExecuting)
			failed, err := a.executeBatch(ctx, state, msg.ToolCalls)
			if err != nil {
				return nil, err
			}

			// A failure only arms diagnosis while it is still the
			// latest outcome; a later success in the same batch
			// clears it.
			if failed && state.LastError != "" {
				if state.RetryCount >= state.MaxRetries {
					logging.Loop("retry budget exhausted: session=%s retries=%d", state.SessionID, state.RetryCount)
					return a.terminate(state, TerminatedMaxRetries, ""), nil
				}
				if !a.skipDiagnosis {
					a.emitState(StateDiagnosing)
					a.diagnose(ctx, state)
				}
			}
			// Back to Thinking.
		}
	}
}

// think produces exactly one assistant message. Transport failures are
// wrapped into the message rather than raised; the loop stays
// resumable.
func (a *Agent) think(ctx context.Context, state *ConversationState) types.Message {
	state.Snapshot = CaptureSnapshot()

	systemPrompt, err := a.prompts.Render(prompt.NameSystem, prompt.SystemData{
		OS:         state.Snapshot.OS,
		Shell:      state.Snapshot.Shell,
		WorkingDir: state.Snapshot.WorkingDir,
		Role:       string(state.Role),
		RetryNote:  retryNote(state),
	})
	if err != nil {
		return types.AssistantMessage("Error: " + err.Error())
	}

	if state.Role == types.RoleSubAgent {
		if framing, err := a.prompts.Render(prompt.NameSubAgent, nil); err == nil {
			systemPrompt += "\n\n" + framing
		}
	}

	resp, err := a.llm.ChatWithTools(ctx, systemPrompt, state.Messages, a.registry.Definitions())
	if err != nil {
		logging.Loop("thinking failed: session=%s: %v", state.SessionID, err)
		return types.AssistantMessage("Error: " + err.Error())
	}

	if strings.TrimSpace(resp.Text) == "" && len(resp.ToolCalls) == 0 {
		logging.Loop("empty provider response, synthesizing fallback: session=%s", state.SessionID)
		return types.AssistantMessage(fallbackText)
	}

	return types.AssistantMessage(resp.Text, resp.ToolCalls...)
}

// diagnose runs the text-only error analysis and appends it so the
// next thinking step has it as context.
func (a *Agent) diagnose(ctx context.Context, state *ConversationState) {
	systemPrompt, err := a.prompts.Render(prompt.NameDiagnosis, prompt.DiagnosisData{
		Attempt:    state.RetryCount,
		MaxRetries: state.MaxRetries,
	})
	if err != nil {
		systemPrompt = ""
	}

	text, err := a.llm.CompleteWithSystem(ctx, systemPrompt, "Error: "+state.LastError)
	if err != nil || strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("The last command failed: %s. Consider a different approach.", state.LastError)
	}

	state.LastDiagnostic = text
	a.record(state, types.AssistantMessage(text))
	logging.Loop("diagnosis appended: session=%s attempt=%d/%d", state.SessionID, state.RetryCount, state.MaxRetries)
}

// record appends, persists, and reports one message.
func (a *Agent) record(state *ConversationState, msg types.Message) {
	seq := len(state.Messages)
	state.Append(msg)
	if a.store != nil {
		if err := a.store.AppendMessage(state.SessionID, seq, msg); err != nil {
			logging.Session("persist failed: session=%s seq=%d: %v", state.SessionID, seq, err)
		} else {
			state.Persisted = seq + 1
		}
	}
	a.sink.Emit(Event{Kind: EventMessage, Message: &msg})
}

func (a *Agent) emitState(s State) {
	a.sink.Emit(Event{Kind: EventState, State: s})
}

func (a *Agent) terminate(state *ConversationState, status TerminationStatus, finalText string) *Result {
	result := &Result{
		Status:     status,
		FinalText:  finalText,
		LastError:  state.LastError,
		Diagnostic: state.LastDiagnostic,
	}
	a.emitState(StateTerminated)
	a.sink.Emit(Event{Kind: EventTerminated, Result: result})
	logging.Loop("task terminated: session=%s status=%s", state.SessionID, status)
	return result
}

func retryNote(state *ConversationState) string {
	if state.RetryCount == 0 {
		return ""
	}
	return fmt.Sprintf("Previous attempts failed (%d of %d retries used). Review the error output before acting.",
		state.RetryCount, state.MaxRetries)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
