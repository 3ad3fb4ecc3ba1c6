package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ferry/types"
)

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "cancel and quit"),
	),
}

// Run shows the submission view until the workflow reaches a terminal state
// or the user quits. Quitting calls cancel. It returns the last state the
// view observed.
func Run(ctx context.Context, out io.Writer, file string, states <-chan types.WorkflowState, cancel func()) (types.WorkflowState, error) {
	p := tea.NewProgram(
		NewSubmitModel(file, states, cancel),
		tea.WithContext(ctx),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return types.WorkflowState{}, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(SubmitModel)
	if !ok {
		return types.WorkflowState{}, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.State(), nil
}
