package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"birdnest/pkg/conflict"
	"birdnest/pkg/operation"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user declines at the confirmation step.
var ErrCancelled = errors.New("operation cancelled")

// Runner is the part of an operation the monitor drives.
type Runner interface {
	Load(ctx context.Context) error
	Confirm() error
}

type (
	snapshotMsg operation.Snapshot
	loadedMsg   struct{ err error }
	finishedMsg struct{ err error }
)

// Model shows one operation from detail loading to its terminal phase.
type Model struct {
	ctx         context.Context
	op          Runner
	autoConfirm bool

	snap operation.Snapshot
	err  error

	width  int
	height int
	ready  bool

	loaded     bool
	started    bool
	done       bool
	showOutput bool
	notice     string

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap
	styles   *Styles
}

// NewModel creates a monitor for op. initial is the operation's snapshot
// before Load.
func NewModel(ctx context.Context, op Runner, initial operation.Snapshot, autoConfirm bool) *Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		ctx:         ctx,
		op:          op,
		autoConfirm: autoConfirm,
		snap:        initial,
		spinner:     sp,
		viewport:    viewport.New(80, 12),
		help:        help.New(),
		keys:        DefaultKeyMap(),
		styles:      styles,
	}
}

// Result returns nil when the operation completed, ErrCancelled when the user
// declined, and the operation's error otherwise.
func (m *Model) Result() error {
	return m.err
}

// Snapshot returns the last snapshot the monitor received.
func (m *Model) Snapshot() operation.Snapshot {
	return m.snap
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.op.Load(m.ctx)}
	}
}

func (m *Model) confirm() tea.Cmd {
	m.started = true
	m.showOutput = true
	return func() tea.Msg {
		return finishedMsg{err: m.op.Confirm()}
	}
}

func (m *Model) awaitingConfirm() bool {
	return m.loaded && !m.started && !m.done
}

func (m *Model) running() bool {
	return m.started && !m.done
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-2, 20)
		m.viewport.Height = max(msg.Height-10, 3)
		m.help.Width = msg.Width
		m.ready = true

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.apply(operation.Snapshot(msg))

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, nil
		}
		if m.autoConfirm {
			return m, m.confirm()
		}

	case finishedMsg:
		m.err = msg.err
		m.done = true
		m.notice = ""
		var conflictErr *operation.ConflictError
		if errors.As(msg.err, &conflictErr) {
			m.showOutput = false
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) apply(s operation.Snapshot) {
	follow := m.viewport.AtBottom()
	m.snap = s
	m.viewport.SetContent(s.Output)
	if follow {
		m.viewport.GotoBottom()
	}
	if s.Phase == operation.ConflictDetected {
		m.showOutput = false
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case m.awaitingConfirm() && key.Matches(msg, m.keys.Confirm):
		return m, m.confirm()

	case m.awaitingConfirm() && (key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Quit)):
		m.err = ErrCancelled
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Quit):
		if m.running() {
			m.notice = "The package tool is still running; wait for it to finish"
			return m, nil
		}
		if !m.loaded {
			m.err = ErrCancelled
		}
		return m, tea.Quit

	case m.done && (key.Matches(msg, m.keys.Confirm) || key.Matches(msg, m.keys.Cancel)):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleView):
		m.showOutput = !m.showOutput
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	subject := strings.Join(m.snap.Targets, ", ")
	if subject == "" {
		subject = "all packages"
	}
	title := m.styles.Header.Render(fmt.Sprintf(" birdnest: %s %s ", m.snap.Kind.Title(), subject))
	badge := BackendBadge(m.snap.Backend)
	if m.snap.Privileged {
		badge += " " + Badge("root", caution)
	}
	return title + " " + badge
}

func (m *Model) renderStatus() string {
	status := m.snap.Status
	if status == "" {
		status = m.snap.Phase.String()
	}

	var conflictErr *operation.ConflictError
	switch {
	case errors.Is(m.err, ErrCancelled):
		return m.styles.Muted.Render("Cancelled")
	case m.err != nil && !errors.As(m.err, &conflictErr):
		return m.styles.Broken.Render("✗ " + m.err.Error())
	case m.done && m.err == nil:
		return m.styles.Done.Render("✓ " + status)
	case m.done:
		return m.styles.PhaseStyle(m.snap.Phase).Render("! " + status)
	default:
		return m.spinner.View() + " " + m.styles.PhaseStyle(m.snap.Phase).Render(status)
	}
}

func (m *Model) renderBody() string {
	if m.snap.Conflict != nil && !m.showOutput {
		return m.renderConflict(m.snap.Conflict)
	}
	if m.showOutput {
		return m.styles.OutputBox.Render(m.viewport.View())
	}
	if len(m.snap.Details) > 0 {
		return m.renderDetails()
	}
	return ""
}

func (m *Model) renderDetails() string {
	nameWidth, versionWidth := 0, 0
	for _, d := range m.snap.Details {
		nameWidth = max(nameWidth, lipgloss.Width(d.Name))
		versionWidth = max(versionWidth, lipgloss.Width(d.Version))
	}

	var b strings.Builder
	b.WriteString(m.styles.Heading.Render(fmt.Sprintf("%d package(s)", len(m.snap.Details))))
	b.WriteString("\n")
	for _, d := range m.snap.Details {
		b.WriteString(m.styles.Name.Width(nameWidth + 2).Render(d.Name))
		b.WriteString(m.styles.Version.Width(versionWidth + 2).Render(d.Version))
		b.WriteString(m.styles.Size.Render(d.Size))
		b.WriteString("\n  ")
		b.WriteString(m.styles.Muted.Render(d.Description))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderConflict(r *conflict.Report) string {
	var b strings.Builder
	b.WriteString(m.styles.ConflictTitle.Render(r.Summary))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("category: " + r.Category.String()))
	if r.Details != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Details)
	}
	if len(r.Packages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Label.Render("Affected: ") + strings.Join(r.Packages, ", "))
	}
	if r.Suggestion != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Label.Render(r.Suggestion))
	}

	box := m.styles.ConflictBox
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	return box.Render(b.String())
}

func (m *Model) renderFooter() string {
	var line string
	switch {
	case m.awaitingConfirm():
		line = fmt.Sprintf("Proceed to %s? ", m.snap.Kind) +
			m.styles.Key.Render("[Y]es") +
			m.styles.Muted.Render("[N]o")
	case m.notice != "":
		line = m.styles.Blocked.Render(m.notice)
	case m.done:
		line = m.styles.Muted.Render("Press q to exit")
	}

	return line + "\n" + m.styles.Footer.Render(m.help.View(m.keys))
}
