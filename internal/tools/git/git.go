// Package git provides version control tools for the agent. Commands
// run with structured argument lists, never through a shell.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"shellmind/internal/logging"
	"shellmind/internal/tools"
)

const maxOutputBytes = 50000

// runGit executes git with the given arguments and returns combined
// output. A non-zero exit comes back as an error carrying stderr.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	logging.ToolsDebug("git: args=%v dir=%s", args, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s failed: %s", strings.Join(args, " "), msg)
	}

	out := strings.TrimSpace(stdout.String())
	if len(out) > maxOutputBytes {
		out = out[:maxOutputBytes] + "\n...[truncated]"
	}
	return out, nil
}

func dirArg(args map[string]any) string {
	dir, _ := args["working_dir"].(string)
	return dir
}

var workingDirProp = tools.Property{
	Type:        "string",
	Description: "Repository directory (default: current directory)",
}

// StatusTool reports changed files, staged files, and branch info.
func StatusTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_status",
		Description: "Show the working tree status: changed files, staged files, branch info",
		Category:    tools.CategoryGit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			out, err := runGit(ctx, dirArg(args), "status")
			if err != nil {
				return "", err
			}
			return out, nil
		},
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"working_dir": workingDirProp,
			},
		},
	}
}

// LogTool shows recent commit history.
func LogTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_log",
		Description: "Show recent commit history as a decorated one-line graph",
		Category:    tools.CategoryGit,
		Execute:     executeLog,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"limit": {
					Type:        "integer",
					Description: "Number of commits to show (default: 10)",
					Default:     10,
				},
				"working_dir": workingDirProp,
			},
		},
	}
}

func executeLog(ctx context.Context, args map[string]any) (string, error) {
	limit := 10
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	return runGit(ctx, dirArg(args), "log", fmt.Sprintf("-%d", limit), "--oneline", "--graph", "--decorate")
}

// DiffTool shows unstaged changes, or changes against a target.
func DiffTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_diff",
		Description: "Show changes in the working tree, or against a file, branch, or commit. Pass --cached for staged changes",
		Category:    tools.CategoryGit,
		Execute:     executeDiff,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"target": {
					Type:        "string",
					Description: "File, branch, or commit to diff against (optional)",
				},
				"working_dir": workingDirProp,
			},
		},
	}
}

func executeDiff(ctx context.Context, args map[string]any) (string, error) {
	gitArgs := []string{"diff"}
	if target, _ := args["target"].(string); target != "" {
		gitArgs = append(gitArgs, target)
	}
	out, err := runGit(ctx, dirArg(args), gitArgs...)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "no changes", nil
	}
	return out, nil
}

// BranchListTool lists local branches with tracking info.
func BranchListTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_branch_list",
		Description: "List local branches with their upstream tracking info",
		Category:    tools.CategoryGit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return runGit(ctx, dirArg(args), "branch", "-vv")
		},
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"working_dir": workingDirProp,
			},
		},
	}
}

// CheckoutTool switches branches, optionally creating a new one.
func CheckoutTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_checkout",
		Description: "Switch to a branch, or create and switch to a new one",
		Category:    tools.CategoryGit,
		Execute:     executeCheckout,
		Schema: tools.ToolSchema{
			Required: []string{"branch"},
			Properties: map[string]tools.Property{
				"branch": {
					Type:        "string",
					Description: "Name of the branch to check out",
				},
				"create_new": {
					Type:        "boolean",
					Description: "Create the branch before switching (default: false)",
					Default:     false,
				},
				"working_dir": workingDirProp,
			},
		},
	}
}

func executeCheckout(ctx context.Context, args map[string]any) (string, error) {
	branch, _ := args["branch"].(string)
	if branch == "" {
		return "", fmt.Errorf("branch is required")
	}

	gitArgs := []string{"checkout"}
	if create, _ := args["create_new"].(bool); create {
		gitArgs = append(gitArgs, "-b")
	}
	gitArgs = append(gitArgs, branch)

	out, err := runGit(ctx, dirArg(args), gitArgs...)
	if err != nil {
		return "", err
	}
	if out == "" {
		return fmt.Sprintf("Switched to branch %s", branch), nil
	}
	return out, nil
}

// CommitTool commits staged changes, optionally staging modified
// tracked files first.
func CommitTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_commit",
		Description: "Commit changes. add_all stages modified tracked files first, untracked files stay untracked",
		Category:    tools.CategoryGit,
		Execute:     executeCommit,
		Schema: tools.ToolSchema{
			Required: []string{"message"},
			Properties: map[string]tools.Property{
				"message": {
					Type:        "string",
					Description: "The commit message",
				},
				"add_all": {
					Type:        "boolean",
					Description: "Stage all modified tracked files before committing (default: false)",
					Default:     false,
				},
				"working_dir": workingDirProp,
			},
		},
	}
}

func executeCommit(ctx context.Context, args map[string]any) (string, error) {
	message, _ := args["message"].(string)
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	dir := dirArg(args)
	var parts []string

	if addAll, _ := args["add_all"].(bool); addAll {
		if _, err := runGit(ctx, dir, "add", "-u"); err != nil {
			return "", fmt.Errorf("failed to stage files: %w", err)
		}
		parts = append(parts, "Staged modified files.")
	}

	out, err := runGit(ctx, dir, "commit", "-m", message)
	if err != nil {
		return "", err
	}
	parts = append(parts, out)
	return strings.Join(parts, "\n"), nil
}

// ShowTool displays a commit or other git object.
func ShowTool() *tools.Tool {
	return &tools.Tool{
		Name:        "git_show",
		Description: "Show details of a commit, branch, or tag",
		Category:    tools.CategoryGit,
		Execute:     executeShow,
		Schema: tools.ToolSchema{
			Required: []string{"ref"},
			Properties: map[string]tools.Property{
				"ref": {
					Type:        "string",
					Description: "Commit hash, branch name, or tag",
				},
				"working_dir": workingDirProp,
			},
		},
	}
}

func executeShow(ctx context.Context, args map[string]any) (string, error) {
	ref, _ := args["ref"].(string)
	if ref == "" {
		return "", fmt.Errorf("ref is required")
	}
	return runGit(ctx, dirArg(args), "show", ref)
}

// RegisterAll registers all git tools with the given registry.
func RegisterAll(registry *tools.Registry) error {
	allTools := []*tools.Tool{
		StatusTool(),
		LogTool(),
		DiffTool(),
		BranchListTool(),
		CheckoutTool(),
		CommitTool(),
		ShowTool(),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
