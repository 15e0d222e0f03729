package tui

import (
	"context"
	"fmt"
	"sync"

	"birdnest/pkg/operation"

	tea "github.com/charmbracelet/bubbletea"
)

// Monitor runs an operation under a full-screen bubbletea program. Register
// Observe on the operation before calling Run.
type Monitor struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewMonitor creates an idle monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Observe forwards an operation snapshot to the running program. Snapshots
// arriving while no program runs are dropped.
func (m *Monitor) Observe(s operation.Snapshot) {
	m.mu.Lock()
	p := m.program
	m.mu.Unlock()

	if p != nil {
		p.Send(snapshotMsg(s))
	}
}

// Run drives op through detail loading, confirmation and execution and
// returns the operation's outcome once the user leaves the monitor.
func (m *Monitor) Run(ctx context.Context, op Runner, initial operation.Snapshot, autoConfirm bool) error {
	model := NewModel(ctx, op, initial, autoConfirm)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	m.mu.Lock()
	m.program = p
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.program = nil
		m.mu.Unlock()
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("operation monitor: %w", err)
	}
	return final.(*Model).Result()
}
