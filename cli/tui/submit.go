package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/ferry/types"
)

// stateMsg delivers a workflow state to the model.
type stateMsg types.WorkflowState

// closedMsg reports that the state channel was closed.
type closedMsg struct{}

// SubmitModel is a Bubble Tea model for a single submission.
type SubmitModel struct {
	file     string
	states   <-chan types.WorkflowState
	cancel   func()
	state    types.WorkflowState
	progress progress.Model
	spinner  spinner.Model
	width    int
	quitting bool
}

// NewSubmitModel creates a model that renders states until one is terminal.
func NewSubmitModel(file string, states <-chan types.WorkflowState, cancel func()) SubmitModel {
	return SubmitModel{
		file:     file,
		states:   states,
		cancel:   cancel,
		state:    types.Idle(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(WarningStyle)),
	}
}

// State returns the last observed workflow state.
func (m SubmitModel) State() types.WorkflowState {
	return m.state
}

// Init implements tea.Model.
func (m SubmitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForState(m.states))
}

// waitForState reads the next state from ch.
func waitForState(ch <-chan types.WorkflowState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

// Update implements tea.Model.
func (m SubmitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			if m.cancel != nil && !m.state.Kind.IsTerminal() {
				m.cancel()
			}
			return m, tea.Quit
		}

	case stateMsg:
		m.state = types.WorkflowState(msg)
		if m.state.Kind.IsTerminal() {
			return m, tea.Quit
		}
		return m, waitForState(m.states)

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m SubmitModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("ferry: " + m.file))
	b.WriteString("\n")

	s := m.state
	b.WriteString(m.row("State", StateStyle(s.Kind).Render(string(s.Kind))))
	if s.SubmissionID != "" {
		b.WriteString(m.row("Submission", s.SubmissionID))
	}

	switch s.Kind {
	case types.StateUploading:
		b.WriteString("\n" + m.progress.ViewAs(float64(s.Progress)/100) + "\n")
	case types.StateAwaitingResult:
		b.WriteString(m.row("Location", s.Location))
		b.WriteString("\n" + m.spinner.View() + " waiting for result\n")
	case types.StateCompleted:
		b.WriteString(m.row("Location", s.Location))
		if s.Result != nil {
			b.WriteString(m.row("Result", s.Result.Key))
			b.WriteString("\n" + BoxStyle.Render(string(s.Result.Raw)) + "\n")
		}
	case types.StateFailed:
		b.WriteString(m.row("Reason", ErrorStyle.Render(s.Reason)))
		if s.Detail != "" {
			b.WriteString(m.row("Detail", s.Detail))
		}
	}

	if !s.Kind.IsTerminal() && !m.quitting {
		b.WriteString(HelpStyle.Render("Press q or Ctrl+C to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m SubmitModel) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), ValueStyle.Render(value)) + "\n"
}
