package shell

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandToolDefinition(t *testing.T) {
	tool := RunCommandTool()

	assert.Equal(t, "run_command", tool.Name)
	assert.Equal(t, "command", tool.ShellCommandArg)
	assert.Contains(t, tool.Schema.Required, "command")
	require.NoError(t, tool.Validate())
}

func TestRunCommandEcho(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}

	out, err := executeRunCommand(context.Background(), map[string]any{
		"command": "echo hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(out))
}

func TestRunCommandMissingCommand(t *testing.T) {
	_, err := executeRunCommand(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestRunCommandFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}

	out, err := executeRunCommand(context.Background(), map[string]any{
		"command": "ls /definitely/not/a/path",
	})
	require.Error(t, err)
	// stderr is folded into the returned output so the model can see it
	assert.NotEmpty(t, out)
}

func TestRunCommandTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}

	_, err := executeRunCommand(context.Background(), map[string]any{
		"command":         "sleep 5",
		"timeout_seconds": 1.0,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSystemInfo(t *testing.T) {
	out, err := executeSystemInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "os: "+runtime.GOOS)
	assert.Contains(t, out, "working_dir:")
}
