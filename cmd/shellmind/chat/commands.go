package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = `Commands:
  /help       show this help
  /new        start a fresh session
  /sessions   list saved sessions
  /quit       exit shellmind

Anything else is sent to the agent. Risky shell commands pause for
your approval before running.`

// handleCommand processes /slash commands locally, without the agent.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "/help":
		m.appendBlock(m.styles.Muted.Render(helpText))

	case "/new":
		m.state = nil
		m.transcript = nil
		m.appendBlock(m.styles.Muted.Render("started a fresh session"))

	case "/sessions":
		m.appendBlock(m.sessionListBlock())

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		m.appendBlock(m.styles.ErrorText.Render("unknown command: " + cmd + " (try /help)"))
	}
	return m, nil
}

func (m Model) sessionListBlock() string {
	if m.cfg.Store == nil {
		return m.styles.Muted.Render("session persistence is disabled")
	}
	sessions, err := m.cfg.Store.ListSessions(10)
	if err != nil {
		return m.styles.ErrorText.Render("could not list sessions: " + err.Error())
	}
	if len(sessions) == 0 {
		return m.styles.Muted.Render("no saved sessions")
	}

	var b strings.Builder
	b.WriteString("Recent sessions:\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "  %s  %s  (%d messages)  %s\n",
			shortID(s.ID), s.UpdatedAt.Format("2006-01-02 15:04"), s.MessageCount, s.Title)
	}
	return m.styles.Muted.Render(strings.TrimRight(b.String(), "\n"))
}
