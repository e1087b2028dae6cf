package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shellmind/internal/tools"
)

// initRepo creates a git repository with one committed file and
// returns its path. Skips the test when git is not installed.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0644))
	run("add", "a.txt")
	run("commit", "-m", "initial")
	return dir
}

func TestRegisterAll(t *testing.T) {
	registry := tools.NewRegistry()
	require.NoError(t, RegisterAll(registry))

	for _, name := range []string{
		"git_status", "git_log", "git_diff", "git_branch_list",
		"git_checkout", "git_commit", "git_show",
	} {
		tool, err := registry.Get(name)
		require.NoError(t, err)
		assert.Equal(t, tools.CategoryGit, tool.Category)
		assert.Empty(t, tool.ShellCommandArg)
	}
}

func TestStatusCleanTree(t *testing.T) {
	dir := initRepo(t)

	out, err := StatusTool().Execute(context.Background(), map[string]any{"working_dir": dir})
	require.NoError(t, err)
	assert.Contains(t, out, "working tree clean")
}

func TestLogShowsCommit(t *testing.T) {
	dir := initRepo(t)

	out, err := executeLog(context.Background(), map[string]any{"working_dir": dir, "limit": 5.0})
	require.NoError(t, err)
	assert.Contains(t, out, "initial")
}

func TestDiffReportsChange(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two\n"), 0644))

	out, err := executeDiff(context.Background(), map[string]any{"working_dir": dir})
	require.NoError(t, err)
	assert.Contains(t, out, "-one")
	assert.Contains(t, out, "+two")
}

func TestDiffNoChanges(t *testing.T) {
	dir := initRepo(t)

	out, err := executeDiff(context.Background(), map[string]any{"working_dir": dir})
	require.NoError(t, err)
	assert.Equal(t, "no changes", out)
}

func TestCheckoutCreatesBranch(t *testing.T) {
	dir := initRepo(t)

	_, err := executeCheckout(context.Background(), map[string]any{
		"working_dir": dir, "branch": "feature", "create_new": true,
	})
	require.NoError(t, err)

	out, err := BranchListTool().Execute(context.Background(), map[string]any{"working_dir": dir})
	require.NoError(t, err)
	assert.Contains(t, out, "feature")
}

func TestCheckoutMissingBranchArg(t *testing.T) {
	_, err := executeCheckout(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestCommitStagesModifiedFiles(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two\n"), 0644))

	out, err := executeCommit(context.Background(), map[string]any{
		"working_dir": dir, "message": "update a", "add_all": true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Staged modified files.")
	assert.Contains(t, out, "update a")

	// Untracked files are not swept in by add_all.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x\n"), 0644))
	_, err = executeCommit(context.Background(), map[string]any{
		"working_dir": dir, "message": "nothing staged", "add_all": true,
	})
	assert.Error(t, err)
}

func TestShowCommit(t *testing.T) {
	dir := initRepo(t)

	out, err := executeShow(context.Background(), map[string]any{"working_dir": dir, "ref": "HEAD"})
	require.NoError(t, err)
	assert.Contains(t, out, "initial")
}

func TestShowBadRef(t *testing.T) {
	dir := initRepo(t)

	_, err := executeShow(context.Background(), map[string]any{"working_dir": dir, "ref": "no-such-ref"})
	assert.Error(t, err)
}
