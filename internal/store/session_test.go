package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shellmind/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndLoadPreservesOrder(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("sess-1", "disk cleanup"))

	call := types.ToolCall{ID: "toolu_1", Name: "run_command", Input: map[string]any{"command": "df -h"}}
	transcript := []types.Message{
		types.UserMessage("how full is my disk?"),
		types.AssistantMessage("Checking.", call),
		types.ToolResultMessage(call, "82% used", false),
		types.AssistantMessage("Your disk is 82% full."),
	}
	for i, msg := range transcript {
		require.NoError(t, s.AppendMessage("sess-1", i, msg))
	}

	loaded, err := s.LoadMessages("sess-1")
	require.NoError(t, err)
	require.Len(t, loaded, 4)

	if diff := cmp.Diff(transcript, loaded); diff != "" {
		t.Errorf("transcript round-trip mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, loaded[3].IsFinal())
}

func TestDuplicateSeqRejected(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("sess-1", ""))

	require.NoError(t, s.AppendMessage("sess-1", 0, types.UserMessage("first")))
	err := s.AppendMessage("sess-1", 0, types.UserMessage("second"))
	assert.Error(t, err)
}

func TestCreateSessionIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("sess-1", "title"))
	require.NoError(t, s.CreateSession("sess-1", "other"))

	sessions, err := s.ListSessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "title", sessions[0].Title)
}

func TestListSessions(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("a", "first"))
	require.NoError(t, s.CreateSession("b", "second"))
	require.NoError(t, s.AppendMessage("a", 0, types.UserMessage("hi")))

	sessions, err := s.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byID := map[string]SessionInfo{}
	for _, info := range sessions {
		byID[info.ID] = info
	}
	assert.Equal(t, 1, byID["a"].MessageCount)
	assert.Equal(t, 0, byID["b"].MessageCount)
}

func TestDeleteSessionCascades(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("a", ""))
	require.NoError(t, s.AppendMessage("a", 0, types.UserMessage("hi")))

	require.NoError(t, s.DeleteSession("a"))

	loaded, err := s.LoadMessages("a")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	sessions, err := s.ListSessions(0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestLoadErrorResult(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSession("a", ""))

	call := types.ToolCall{ID: "t1", Name: "run_command"}
	require.NoError(t, s.AppendMessage("a", 0, types.ToolResultMessage(call, "command failed", true)))

	loaded, err := s.LoadMessages("a")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].IsError)
	assert.Equal(t, "run_command", loaded[0].ToolName)
}
