package agent

import (
	"shellmind/internal/types"
)

// Route is the router's decision over the last message.
type Route int

const (
	// RouteExecute: the assistant requested tool calls.
	RouteExecute Route = iota

	// RouteFinal: the assistant answered with text and no calls.
	RouteFinal

	// RouteError: degenerate message; should not occur given the
	// thinking step's fallback guarantee.
	RouteError
)

// Decide is the pure routing function. Only the message matters; no
// other state field affects this decision.
func Decide(msg types.Message) Route {
	if msg.HasToolCalls() {
		return RouteExecute
	}
	if msg.IsFinal() {
		return RouteFinal
	}
	return RouteError
}
