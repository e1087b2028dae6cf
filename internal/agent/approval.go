package agent

import (
	"context"

	"shellmind/internal/safety"
	"shellmind/internal/types"
)

// ApprovalRequest describes a risky call waiting on the human gate.
type ApprovalRequest struct {
	Call           types.ToolCall
	Command        string
	Classification safety.Classification
}

// Approver is the suspension point for risky calls. The host renders
// the pending command and risk tier and returns the decision. The loop
// does not proceed until this resolves.
type Approver interface {
	RequestApproval(ctx context.Context, req ApprovalRequest) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

func (f ApproverFunc) RequestApproval(ctx context.Context, req ApprovalRequest) (bool, error) {
	return f(ctx, req)
}

// DenyAll refuses every request. The default when no approver is
// wired, so a headless misconfiguration fails closed.
var DenyAll = ApproverFunc(func(ctx context.Context, req ApprovalRequest) (bool, error) {
	return false, nil
})
