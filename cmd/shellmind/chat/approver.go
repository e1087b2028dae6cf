package chat

import (
	"context"

	"shellmind/internal/agent"
)

// approvalPrompt carries one suspended approval request into the UI
// and its answer back out.
type approvalPrompt struct {
	req   agent.ApprovalRequest
	reply chan bool
}

// uiApprover bridges the agent's synchronous approval gate to the
// bubbletea event loop. RequestApproval blocks the agent goroutine
// until the user answers or the task is cancelled.
type uiApprover struct {
	prompts chan approvalPrompt
}

func newUIApprover() *uiApprover {
	return &uiApprover{prompts: make(chan approvalPrompt)}
}

func (a *uiApprover) RequestApproval(ctx context.Context, req agent.ApprovalRequest) (bool, error) {
	p := approvalPrompt{req: req, reply: make(chan bool, 1)}

	select {
	case a.prompts <- p:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case approved := <-p.reply:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
