package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shellmind/internal/agent"
	"shellmind/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Execute a single instruction and exit",
	Long: `Runs one instruction through the agent loop without the interactive UI.
Tool activity is printed as it happens; risky commands prompt for
approval on stdin. The final answer is rendered to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstruction,
}

func runInstruction(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	instruction := strings.Join(args, " ")

	sink := agent.SinkFunc(func(e agent.Event) {
		switch e.Kind {
		case agent.EventToolStart:
			fmt.Fprintf(os.Stderr, "→ %s\n", e.Call.Name)
		case agent.EventToolEnd:
			if e.Err != "" {
				fmt.Fprintf(os.Stderr, "✗ %s (%dms): %s\n", e.Call.Name, e.DurationMs, e.Err)
			} else {
				fmt.Fprintf(os.Stderr, "✓ %s (%dms)\n", e.Call.Name, e.DurationMs)
			}
		case agent.EventState:
			if e.State == agent.StateDiagnosing {
				fmt.Fprintln(os.Stderr, "… analyzing failure")
			}
		}
	})

	app, err := buildApp(cfg, consoleApprover(), sink)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := app.Agent.NewState(instruction, types.RoleSupervisor)
	logger.Info("task started", zap.String("session", state.SessionID))

	result, err := app.Agent.Run(ctx, state)
	if err != nil {
		return err
	}

	switch result.Status {
	case agent.TerminatedSuccess:
		fmt.Println(renderMarkdown(result.FinalText))
		return nil
	case agent.TerminatedMaxRetries:
		if result.Diagnostic != "" {
			fmt.Fprintln(os.Stderr, result.Diagnostic)
		}
		return fmt.Errorf("giving up after %d retries: %s", cfg.Agent.MaxRetries, result.LastError)
	default:
		return fmt.Errorf("task failed: %s", result.LastError)
	}
}

// consoleApprover prompts on stderr and reads y/n from stdin.
func consoleApprover() agent.Approver {
	reader := bufio.NewReader(os.Stdin)
	return agent.ApproverFunc(func(ctx context.Context, req agent.ApprovalRequest) (bool, error) {
		fmt.Fprintf(os.Stderr, "\n[%s] %s\n", strings.ToUpper(string(req.Classification.Verdict)), req.Command)
		for _, w := range req.Classification.Warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", w)
		}
		fmt.Fprint(os.Stderr, "Run this command? [y/N] ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return false, nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

// renderMarkdown pretty-prints the final answer, falling back to the
// raw text when the terminal renderer cannot be built.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
