package chat

import (
	"fmt"
	"strings"

	"shellmind/internal/safety"
)

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.pending != nil {
		b.WriteString(m.approvalView())
		b.WriteString("\n")
	} else if m.running {
		b.WriteString(m.styles.Status.Render(m.spinner.View() + " " + m.status))
		b.WriteString("\n")
	} else {
		b.WriteString(m.textarea.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("enter: send · /help: commands · ctrl+c: quit"))
	}

	return b.String()
}

func (m Model) headerView() string {
	title := "shellmind"
	if m.cfg.Version != "" {
		title += " " + m.cfg.Version
	}
	if m.state != nil {
		title += m.styles.Muted.Render("  session " + shortID(m.state.SessionID))
	}
	return title
}

// approvalView renders the suspended command with its risk verdict.
func (m Model) approvalView() string {
	req := m.pending.req

	verdict := strings.ToUpper(string(req.Classification.Verdict))
	label := m.styles.VerdictStyle(req.Classification.Verdict).Render(verdict)

	var lines []string
	lines = append(lines, fmt.Sprintf("%s  %s", label, m.styles.ApprovalCommand.Render(req.Command)))
	for _, w := range req.Classification.Warnings {
		lines = append(lines, m.styles.Muted.Render("  · "+w))
	}
	if req.Classification.Verdict == safety.VerdictDangerous {
		lines = append(lines, m.styles.ErrorText.Render("This command is destructive."))
	}
	lines = append(lines, m.styles.Help.Render("run it? y: yes · n: no"))

	return m.styles.ApprovalBox.Render(strings.Join(lines, "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
