// Package chat provides the interactive TUI for shellmind. The files
// split as:
//   - model.go: types, Init, Update loop, task lifecycle
//   - view.go: rendering
//   - commands.go: /command handling
//   - approver.go: approval gate bridge
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"shellmind/cmd/shellmind/ui"
	"shellmind/internal/agent"
	"shellmind/internal/store"
	"shellmind/internal/types"
)

// Config wires the chat UI to the host-built components.
type Config struct {
	Agent   *agent.Agent
	Store   *store.Store
	Version string
}

// Messages flowing through the bubbletea loop.
type (
	// agentEventMsg wraps one progress event from the running task.
	agentEventMsg struct{ event agent.Event }

	// approvalMsg surfaces a suspended approval request.
	approvalMsg struct{ prompt approvalPrompt }

	// taskDoneMsg reports the task goroutine finishing.
	taskDoneMsg struct {
		result *agent.Result
		err    error
	}
)

// Model is the bubbletea model for the chat session.
type Model struct {
	cfg      Config
	styles   ui.Styles
	renderer *glamour.TermRenderer

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// transcript is the rendered conversation, one block per entry.
	transcript []string

	state    *agent.ConversationState
	running  bool
	cancel   context.CancelFunc
	phase    agent.State
	pending  *approvalPrompt
	approver *uiApprover

	// msgs funnels events from the agent goroutine into Update.
	msgs chan tea.Msg

	width  int
	height int
	ready  bool
	status string
}

// New builds the chat model.
func New(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask shellmind anything... (/help for commands)"
	ta.Focus()
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(96),
	)

	return Model{
		cfg:      cfg,
		styles:   ui.DefaultStyles(),
		renderer: renderer,
		textarea: ta,
		spinner:  sp,
		approver: newUIApprover(),
		msgs:     make(chan tea.Msg, 64),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForMsg())
}

// waitForMsg re-arms the bridge between the agent goroutine and the
// Update loop. Exactly one of these is outstanding at a time.
func (m Model) waitForMsg() tea.Cmd {
	msgs := m.msgs
	prompts := m.approver.prompts
	return func() tea.Msg {
		select {
		case msg := <-msgs:
			return msg
		case p := <-prompts:
			return approvalMsg{prompt: p}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 1
		footerHeight := m.textarea.Height() + 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if m.pending != nil {
			return m.handleApprovalKey(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.running && m.cancel != nil {
				m.cancel()
				m.status = "cancelling..."
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.running {
				return m.handleSubmit()
			}
		}

	case agentEventMsg:
		m = m.applyEvent(msg.event)
		return m, tea.Batch(m.waitForMsg(), m.spinner.Tick)

	case approvalMsg:
		prompt := msg.prompt
		m.pending = &prompt
		m.refreshViewport()
		return m, m.waitForMsg()

	case taskDoneMsg:
		m.running = false
		m.cancel = nil
		m.pending = nil
		m.phase = ""
		if msg.err != nil {
			m.appendBlock(m.styles.ErrorText.Render("task aborted: " + msg.err.Error()))
		} else if msg.result.Status == agent.TerminatedMaxRetries {
			m.appendBlock(m.styles.ErrorText.Render("giving up: " + msg.result.LastError))
			if msg.result.Diagnostic != "" {
				m.appendBlock(m.styles.Muted.Render(msg.result.Diagnostic))
			}
		}
		m.status = ""
		m.textarea.Focus()
		return m, m.waitForMsg()

	case spinner.TickMsg:
		if m.running {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// handleSubmit dispatches the typed input as a command or a task.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	m.textarea.Reset()

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}
	return m.startTask(input)
}

// startTask launches the agent loop in its own goroutine. The sink
// pushes every event into m.msgs, which waitForMsg drains.
func (m Model) startTask(input string) (tea.Model, tea.Cmd) {
	m.appendBlock(m.styles.UserLabel.Render("you") + "  " + input)

	if m.state == nil {
		m.state = m.cfg.Agent.NewState(input, types.RoleSupervisor)
	} else {
		m.state.NewTurn(input)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.status = "thinking"
	m.textarea.Blur()

	msgs := m.msgs
	ag := m.cfg.Agent
	state := m.state
	go func() {
		result, err := ag.RunWith(ctx, state, m.approver, agent.SinkFunc(func(e agent.Event) {
			msgs <- agentEventMsg{event: e}
		}))
		msgs <- taskDoneMsg{result: result, err: err}
	}()

	return m, m.spinner.Tick
}

// applyEvent folds one agent event into the transcript.
func (m Model) applyEvent(e agent.Event) Model {
	switch e.Kind {
	case agent.EventState:
		m.phase = e.State
		m.status = string(e.State)

	case agent.EventMessage:
		msg := *e.Message
		switch {
		case msg.Role == types.RoleAssistant && msg.Text != "":
			m.appendBlock(m.styles.AssistantLabel.Render("shellmind") + "\n" + m.renderMarkdown(msg.Text))
		case msg.Role == types.RoleTool:
			style := m.styles.ToolOutput
			marker := "✓"
			if msg.IsError {
				style = m.styles.ErrorText
				marker = "✗"
			}
			m.appendBlock(style.Render("  " + marker + " " + msg.ToolName + ": " + clip(msg.Text, 400)))
		}

	case agent.EventToolStart:
		m.appendBlock(m.styles.ToolLabel.Render("  → " + e.Call.Name))
	}
	m.refreshViewport()
	return m
}

// handleApprovalKey resolves the pending gate. Only y/n (and ctrl+c as
// a deny) are accepted while suspended.
func (m Model) handleApprovalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.pending.reply <- true
		m.pending = nil
		m.status = "executing"
	case "n", "N", "esc", "ctrl+c":
		m.pending.reply <- false
		m.pending = nil
		m.status = "declined"
	default:
		return m, nil
	}
	m.refreshViewport()
	return m, nil
}

func (m *Model) appendBlock(block string) {
	m.transcript = append(m.transcript, block)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Run starts the chat program on the current terminal.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
