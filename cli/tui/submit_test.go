package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/ferry/types"
)

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSubmitModel_Progress(t *testing.T) {
	ch := make(chan types.WorkflowState, 1)
	m := NewSubmitModel("data.csv", ch, nil)

	next, cmd := m.Update(stateMsg(types.WorkflowState{
		Kind:         types.StateUploading,
		SubmissionID: "sub-1",
		Progress:     40,
	}))
	m = next.(SubmitModel)

	if m.State().Progress != 40 {
		t.Errorf("progress = %d, want 40", m.State().Progress)
	}
	if cmd == nil {
		t.Fatal("expected a command waiting for the next state")
	}

	// The returned command reads the channel.
	ch <- types.WorkflowState{Kind: types.StateAwaitingResult, Location: "mem://b/in/data.csv"}
	msg := cmd()
	if s, ok := msg.(stateMsg); !ok || s.Kind != types.StateAwaitingResult {
		t.Fatalf("cmd() = %#v, want awaiting state", msg)
	}

	view := m.View()
	for _, want := range []string{"data.csv", "uploading", "sub-1", "40%", "cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSubmitModel_Awaiting(t *testing.T) {
	m := NewSubmitModel("data.csv", nil, nil)
	next, _ := m.Update(stateMsg(types.WorkflowState{
		Kind:     types.StateAwaitingResult,
		Location: "s3://uploads/in/data.csv",
	}))

	view := next.View()
	if !strings.Contains(view, "waiting for result") || !strings.Contains(view, "s3://uploads/in/data.csv") {
		t.Errorf("view:\n%s", view)
	}
}

func TestSubmitModel_TerminalQuits(t *testing.T) {
	tests := []struct {
		name  string
		state types.WorkflowState
		want  []string
	}{
		{
			name: "completed",
			state: types.WorkflowState{
				Kind:   types.StateCompleted,
				Result: &types.ResultPayload{Key: "out/result.json", Raw: []byte(`{"rows":3}`)},
			},
			want: []string{"completed", "out/result.json", `{"rows":3}`},
		},
		{
			name: "failed",
			state: types.WorkflowState{
				Kind:   types.StateFailed,
				Reason: types.ReasonPollFetch,
				Detail: "access denied",
			},
			want: []string{"failed", types.ReasonPollFetch, "access denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSubmitModel("data.csv", nil, nil)
			next, cmd := m.Update(stateMsg(tt.state))
			if !isQuit(cmd) {
				t.Error("terminal state should quit")
			}
			view := next.View()
			for _, want := range tt.want {
				if !strings.Contains(view, want) {
					t.Errorf("view missing %q:\n%s", want, view)
				}
			}
			if strings.Contains(view, "Press q") {
				t.Errorf("terminal view should not show help:\n%s", view)
			}
		})
	}
}

func TestSubmitModel_QuitCancels(t *testing.T) {
	canceled := 0
	m := NewSubmitModel("data.csv", nil, func() { canceled++ })
	next, _ := m.Update(stateMsg(types.WorkflowState{Kind: types.StateUploading}))

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
	if canceled != 1 {
		t.Errorf("cancel called %d times, want 1", canceled)
	}
}

func TestSubmitModel_QuitAfterTerminalDoesNotCancel(t *testing.T) {
	canceled := 0
	m := NewSubmitModel("data.csv", nil, func() { canceled++ })
	next, _ := m.Update(stateMsg(types.WorkflowState{Kind: types.StateCompleted}))

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Error("ctrl+c should quit")
	}
	if canceled != 0 {
		t.Errorf("cancel called %d times, want 0", canceled)
	}
}

func TestSubmitModel_ChannelClosed(t *testing.T) {
	ch := make(chan types.WorkflowState)
	close(ch)

	if msg := waitForState(ch)(); msg != (closedMsg{}) {
		t.Fatalf("msg = %#v, want closedMsg", msg)
	}
	m := NewSubmitModel("data.csv", ch, nil)
	if _, cmd := m.Update(closedMsg{}); !isQuit(cmd) {
		t.Error("closed channel should quit")
	}
}

func TestStateStyle(t *testing.T) {
	if StateStyle(types.StateFailed).GetForeground() != errorColor {
		t.Error("failed should use the error color")
	}
	if StateStyle(types.StateCompleted).GetForeground() != successColor {
		t.Error("completed should use the success color")
	}
	if StateStyle(types.StateAwaitingResult).GetForeground() != warningColor {
		t.Error("awaiting should use the warning color")
	}
}
