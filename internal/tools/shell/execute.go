// Package shell provides tools that run commands in the user's shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"shellmind/internal/logging"
	"shellmind/internal/tools"
)

const maxOutputBytes = 50000

// DefaultTimeout bounds command execution when the model does not ask
// for a specific timeout.
const DefaultTimeout = 60 * time.Second

// RunCommandTool returns the tool for executing shell commands.
// The command argument is marked for safety classification: callers
// must gate execution on the classifier's verdict before invoking it.
func RunCommandTool() *tools.Tool {
	return &tools.Tool{
		Name:            "run_command",
		Description:     "Execute a shell command and return its combined output",
		Category:        tools.CategoryShell,
		ShellCommandArg: "command",
		Execute:         executeRunCommand,
		Schema: tools.ToolSchema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command": {
					Type:        "string",
					Description: "The shell command to execute",
				},
				"working_dir": {
					Type:        "string",
					Description: "Working directory for the command",
				},
				"timeout_seconds": {
					Type:        "integer",
					Description: "Timeout in seconds (default: 60)",
					Default:     60,
				},
			},
		},
	}
}

func executeRunCommand(ctx context.Context, args map[string]any) (string, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return "", fmt.Errorf("command is required")
	}

	workingDir := ""
	if wd, ok := args["working_dir"].(string); ok {
		workingDir = wd
	}

	timeout := DefaultTimeout
	if t, ok := args["timeout_seconds"].(float64); ok && t > 0 {
		timeout = time.Duration(t) * time.Second
	}

	logging.ToolsDebug("run_command: cmd=%s, dir=%s, timeout=%s", command, workingDir, timeout)

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(execCtx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(execCtx, shellPath(), "-c", command)
	}
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n--- stderr ---\n"
		}
		output += stderr.String()
	}
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes] + "\n...[truncated]"
	}

	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			logging.Tools("run_command timed out: %s", command)
			return output, fmt.Errorf("command timed out after %s", timeout)
		}
		logging.Tools("run_command failed: %s (%v)", command, err)
		return output, fmt.Errorf("command failed: %w\nOutput:\n%s", err, output)
	}

	logging.ToolsDebug("run_command completed: %s (%d bytes output)", command, len(output))
	return output, nil
}

// shellPath returns the user's shell, falling back to sh.
func shellPath() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "sh"
}

// SystemInfoTool returns a tool reporting the host environment.
func SystemInfoTool() *tools.Tool {
	return &tools.Tool{
		Name:        "system_info",
		Description: "Report the operating system, shell, and working directory",
		Category:    tools.CategorySystem,
		Execute:     executeSystemInfo,
		Schema: tools.ToolSchema{
			Required:   []string{},
			Properties: map[string]tools.Property{},
		},
	}
}

func executeSystemInfo(ctx context.Context, args map[string]any) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}
	return fmt.Sprintf("os: %s\narch: %s\nshell: %s\nworking_dir: %s",
		runtime.GOOS, runtime.GOARCH, shellPath(), wd), nil
}
