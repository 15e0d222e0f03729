package tui

import (
	"context"
	"errors"
	"testing"

	"birdnest/pkg/conflict"
	"birdnest/pkg/manager"
	"birdnest/pkg/operation"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	loadErr    error
	confirmErr error
	loads      int
	confirms   int
}

func (f *fakeRunner) Load(context.Context) error {
	f.loads++
	return f.loadErr
}

func (f *fakeRunner) Confirm() error {
	f.confirms++
	return f.confirmErr
}

var initial = operation.Snapshot{
	Kind:    operation.Install,
	Backend: "apt",
	Targets: []string{"vim"},
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, runner *fakeRunner, autoConfirm bool) *Model {
	t.Helper()
	m := NewModel(context.Background(), runner, initial, autoConfirm)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// send delivers msg and runs the returned command once, as the program would.
func send(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func isQuit(msg tea.Msg) bool {
	_, ok := msg.(tea.QuitMsg)
	return ok
}

func TestModelConfirmFlow(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestModel(t, runner, false)

	loaded := m.load()()
	require.IsType(t, loadedMsg{}, loaded)
	assert.Equal(t, 1, runner.loads)

	assert.Nil(t, send(m, loaded))
	m.Update(snapshotMsg(operation.Snapshot{
		Kind: operation.Install, Backend: "apt", Targets: []string{"vim"},
		Phase:   operation.Confirming,
		Status:  "Ready to install 1 package(s)",
		Details: []manager.PackageDetail{{Name: "vim", Version: "9.1", Size: "3.9 MB", Description: "Vi IMproved"}},
	}))
	assert.Contains(t, m.View(), "Vi IMproved")
	assert.Contains(t, m.View(), "Proceed to install?")

	finished := send(m, keyPress("y"))
	require.IsType(t, finishedMsg{}, finished)
	assert.Equal(t, 1, runner.confirms)

	// a second confirm key while running must not start the operation again
	assert.Nil(t, send(m, keyPress("y")))
	assert.Equal(t, 1, runner.confirms)

	m.Update(finished)
	assert.NoError(t, m.Result())
	assert.True(t, isQuit(send(m, keyPress("q"))))
}

func TestModelUpgradeAllHeader(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	m.Update(snapshotMsg(operation.Snapshot{
		Kind: operation.Upgrade, Backend: "apt",
		Phase:  operation.Confirming,
		Status: "Ready to upgrade all packages",
	}))

	view := m.View()
	assert.Contains(t, view, "Upgrade all packages")
	assert.Contains(t, view, "Proceed to upgrade?")
}

func TestModelAutoConfirm(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestModel(t, runner, true)

	msg := send(m, loadedMsg{})
	require.IsType(t, finishedMsg{}, msg)
	assert.Equal(t, 1, runner.confirms)
}

func TestModelCancelAtConfirmation(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestModel(t, runner, false)
	m.Update(loadedMsg{})

	assert.True(t, isQuit(send(m, keyPress("n"))))
	assert.ErrorIs(t, m.Result(), ErrCancelled)
	assert.Zero(t, runner.confirms)
}

func TestModelQuitIgnoredWhileRunning(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	m.Update(loadedMsg{})
	_, cmd := m.Update(keyPress("y"))
	require.NotNil(t, cmd)

	assert.Nil(t, send(m, keyPress("q")))
	assert.Contains(t, m.View(), "still running")
}

func TestModelLoadFailure(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, true)

	assert.Nil(t, send(m, loadedMsg{err: operation.ErrAllDetailsFailed}))
	assert.ErrorIs(t, m.Result(), operation.ErrAllDetailsFailed)
	assert.Contains(t, m.View(), "Failed to load information for any packages")
	assert.True(t, isQuit(send(m, keyPress("enter"))))
}

func TestModelShowsConflict(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	m.Update(loadedMsg{})
	m.Update(keyPress("y"))

	report := &conflict.Report{
		Category:   conflict.PackageConflict,
		Summary:    "Package conflict detected",
		Details:    "vim conflicts with vim-tiny",
		Packages:   []string{"vim-tiny"},
		Suggestion: "Remove vim-tiny first",
	}
	m.Update(snapshotMsg(operation.Snapshot{
		Kind: operation.Install, Backend: "apt", Targets: []string{"vim"},
		Phase:    operation.ConflictDetected,
		Status:   report.Summary,
		Output:   "E: vim conflicts with vim-tiny\n",
		Conflict: report,
	}))
	m.Update(finishedMsg{err: &operation.ConflictError{Report: report}})

	view := m.View()
	assert.Contains(t, view, "Package conflict detected")
	assert.Contains(t, view, "category: package-conflict")
	assert.Contains(t, view, "Affected: vim-tiny")

	var conflictErr *operation.ConflictError
	assert.True(t, errors.As(m.Result(), &conflictErr))

	m.Update(keyPress("o"))
	assert.Contains(t, m.View(), "E: vim conflicts with vim-tiny")
}

func TestModelStreamsOutput(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	m.Update(loadedMsg{})
	m.Update(keyPress("y"))

	m.Update(snapshotMsg(operation.Snapshot{
		Kind: operation.Install, Backend: "apt", Targets: []string{"vim"},
		Phase:  operation.StreamingOutput,
		Status: "Installing packages...",
		Output: "Unpacking vim (2:9.1) ...\n",
	}))

	view := m.View()
	assert.Contains(t, view, "Installing packages...")
	assert.Contains(t, view, "Unpacking vim")
}

func TestModelFailureShowsError(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	m.Update(loadedMsg{})
	m.Update(keyPress("y"))
	m.Update(finishedMsg{err: errors.New("E: Unable to locate package vim")})

	assert.Contains(t, m.View(), "E: Unable to locate package vim")
	assert.EqualError(t, m.Result(), "E: Unable to locate package vim")
}

func TestModelQuitBeforeLoad(t *testing.T) {
	m := newTestModel(t, &fakeRunner{}, false)
	assert.True(t, isQuit(send(m, keyPress("q"))))
	assert.ErrorIs(t, m.Result(), ErrCancelled)
}

func TestMonitorObserveWithoutProgram(t *testing.T) {
	mon := NewMonitor()
	assert.NotPanics(t, func() { mon.Observe(initial) })
}
