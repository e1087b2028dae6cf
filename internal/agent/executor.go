package agent

import (
	"context"
	"errors"
	"fmt"

	"shellmind/internal/logging"
	"shellmind/internal/tools"
	"shellmind/internal/types"
)

// deniedResult is the transcript record for a rejected approval. The
// LLM sees it as tool output and is instructed not to retry.
const deniedResult = "user declined to run this command"

// abortedResult is recorded for calls skipped after an earlier denial.
// Providers require one result per issued call, so aborted calls still
// get a transcript record.
const abortedResult = "not executed: an earlier command in this step was declined"

// executeBatch runs one assistant message's tool calls in request
// order and appends one result per completed call. The returned bool
// reports whether any call hit an execution failure, which is what
// arms the diagnosis step.
//
// Parallel mode is accepted but degrades to sequential scheduling so
// the single-writer rule on ConversationState holds trivially.
func (a *Agent) executeBatch(ctx context.Context, state *ConversationState, calls []types.ToolCall) (bool, error) {
	if state.ExecutionMode == types.ModeParallel {
		logging.LoopDebug("parallel mode requested, running sequentially: session=%s", state.SessionID)
	}

	failed := false
	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		tool, err := a.registry.Get(call.Name)
		if err != nil {
			// Planning error: report to the LLM, no retry charged.
			logging.Loop("unknown tool requested: session=%s tool=%s", state.SessionID, call.Name)
			a.record(state, types.ToolResultMessage(call, fmt.Sprintf("%s is not a valid tool", call.Name), true))
			continue
		}

		if tool.ShellCommandArg != "" {
			approved, err := a.gate(ctx, state, tool, call)
			if err != nil {
				return false, err
			}
			if !approved {
				// Denial aborts the rest of the batch. Every call in
				// the assistant message still records a result, since
				// providers reject a follow-up request with unanswered
				// calls.
				logging.Safety("command declined: session=%s tool=%s", state.SessionID, call.Name)
				a.record(state, types.ToolResultMessage(call, deniedResult, true))
				for _, rest := range calls[i+1:] {
					a.record(state, types.ToolResultMessage(rest, abortedResult, true))
				}
				return failed, nil
			}
		}

		a.sink.Emit(Event{Kind: EventToolStart, Call: &call})

		// A started call runs to completion or timeout; task
		// cancellation only takes effect between calls.
		execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.toolTimeout)
		result := a.registry.Execute(execCtx, call.Name, call.Input)
		cancel()

		a.sink.Emit(Event{Kind: EventToolEnd, Call: &call, DurationMs: result.DurationMs, Err: errString(result.Error)})

		switch {
		case result.Error == nil:
			state.LastError = ""
			a.record(state, types.ToolResultMessage(call, result.Result, false))

		case isPlanningError(result.Error):
			// Malformed arguments: the LLM corrects itself on the
			// next thinking step without spending a retry.
			a.record(state, types.ToolResultMessage(call, result.Error.Error(), true))

		default:
			failed = true
			state.LastError = result.Error.Error()
			if state.RetryCount < state.MaxRetries {
				state.RetryCount++
			}
			logging.Loop("tool failed: session=%s tool=%s retries=%d/%d: %v",
				state.SessionID, call.Name, state.RetryCount, state.MaxRetries, result.Error)
			a.record(state, types.ToolResultMessage(call, result.Error.Error(), true))
		}
	}
	return failed, nil
}

// gate classifies a shell-executing call and suspends on the approver
// when the verdict requires it. Returns false when the user declined;
// the caller records the denial and aborts the batch.
func (a *Agent) gate(ctx context.Context, state *ConversationState, tool *tools.Tool, call types.ToolCall) (bool, error) {
	command, _ := call.Input[tool.ShellCommandArg].(string)
	classification := a.classifier.Classify(command)

	logging.Safety("classified command: session=%s tool=%s verdict=%s", state.SessionID, call.Name, classification.Verdict)

	if !classification.Verdict.RequiresApproval(a.autoApproveModerate) {
		return true, nil
	}

	state.PendingApproval = &call
	defer func() { state.PendingApproval = nil }()

	a.emitState(StateAwaitingApproval)
	a.sink.Emit(Event{
		Kind:     EventApproval,
		Call:     &call,
		Verdict:  classification.Verdict,
		Warnings: classification.Warnings,
	})

	approved, err := a.approver.RequestApproval(ctx, ApprovalRequest{
		Call:           call,
		Command:        command,
		Classification: classification,
	})
	if err != nil {
		return false, err
	}
	return approved, nil
}

// isPlanningError reports whether a tool error reflects a bad request
// from the LLM rather than a failed execution.
func isPlanningError(err error) bool {
	var argErr *tools.ArgError
	return errors.As(err, &argErr) || errors.Is(err, tools.ErrToolNotFound)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
