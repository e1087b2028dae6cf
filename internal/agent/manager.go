package agent

import (
	"context"

	"golang.org/x/sync/errgroup"

	"shellmind/internal/logging"
	"shellmind/internal/types"
)

// DefaultSubTaskLimit caps concurrently running sub-agent tasks.
const DefaultSubTaskLimit = 4

// Manager fans user requests out to independent sub-agent tasks. Each
// task gets a fresh ConversationState, so tasks never share mutable
// state and the per-state single-writer rule is preserved.
type Manager struct {
	agent *Agent
	limit int
}

// NewManager wraps an agent for concurrent sub-task dispatch. A limit
// below 1 falls back to DefaultSubTaskLimit.
func NewManager(agent *Agent, limit int) *Manager {
	if limit < 1 {
		limit = DefaultSubTaskLimit
	}
	return &Manager{agent: agent, limit: limit}
}

// RunTasks executes each input as its own sub-agent task and returns
// results in input order. The first cancellation or persistence fault
// stops the group; task-level failures land in the per-task Result.
func (m *Manager) RunTasks(ctx context.Context, inputs []string) ([]*Result, error) {
	results := make([]*Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.limit)

	for i, input := range inputs {
		g.Go(func() error {
			state := m.agent.NewState(input, types.RoleSubAgent)
			logging.Loop("sub-task dispatched: session=%s", state.SessionID)
			result, err := m.agent.Run(ctx, state)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
