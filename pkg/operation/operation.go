package operation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"birdnest/internal/executor"
	"birdnest/pkg/conflict"
	"birdnest/pkg/manager"

	"github.com/rs/zerolog"
)

// progress keywords, checked in order against each lowercased output line
var progressKeywords = []struct {
	words  []string
	status string
}{
	{[]string{"removing", "purging"}, "Removing packages..."},
	{[]string{"installing", "unpacking", "setting up"}, "Installing packages..."},
	{[]string{"reading"}, "Reading package lists..."},
	{[]string{"building"}, "Building dependency tree..."},
}

var completionKeywords = []string{"complete", "done", "success", "finished", "0 upgraded, 0 newly installed"}

// Snapshot is a consistent copy of an Operation's observable state.
type Snapshot struct {
	Kind       Kind
	Backend    string
	Phase      Phase
	Targets    []string
	Privileged bool
	Status     string
	Output     string
	Details    []manager.PackageDetail
	ExitCode   int
	Err        error
	Conflict   *conflict.Report
}

// Handoff is what a conflict-presentation surface receives when an operation
// ends in ConflictDetected.
type Handoff struct {
	Kind    Kind
	Backend string
	Targets []string
	Summary string
	Output  string
	Report  *conflict.Report
}

// Observer is called after every transition and every streamed line.
type Observer func(Snapshot)

// ConflictHandler receives the handoff of a classified conflict.
type ConflictHandler func(Handoff)

// Option configures an Operation.
type Option func(*Operation)

// WithRunner sets the streaming runner. The default runs commands through a
// fresh Executor.
func WithRunner(r Runner) Option {
	return func(o *Operation) { o.runner = r }
}

// WithAutoremove makes a remove also drop dependencies that nothing needs any
// more. It is ignored by other kinds.
func WithAutoremove() Option {
	return func(o *Operation) { o.autoremove = true }
}

// WithIndex sets the installed-package index invalidated on confirmation and
// again after a successful run.
func WithIndex(idx Invalidator) Option {
	return func(o *Operation) { o.index = idx }
}

// WithLogger sets the logger for phase transitions.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Operation) { o.log = log }
}

// WithObserver adds an observer.
func WithObserver(fn Observer) Option {
	return func(o *Operation) { o.observers = append(o.observers, fn) }
}

// WithConflictHandler sets where classified conflicts are handed off.
func WithConflictHandler(fn ConflictHandler) Option {
	return func(o *Operation) { o.onConflict = fn }
}

// Operation is one user-initiated install or remove.
type Operation struct {
	kind       Kind
	targets    []string
	backend    Backend
	runner     Runner
	index      Invalidator
	log        zerolog.Logger
	observers  []Observer
	onConflict ConflictHandler
	autoremove bool

	mu             sync.Mutex
	phase          Phase
	status         string
	output         strings.Builder
	details        []manager.PackageDetail
	pending        *conflict.Report
	report         *conflict.Report
	completionSeen bool
	exitCode       int
	err            error
}

// New creates an Operation in the Idle phase.
func New(kind Kind, backend Backend, targets []string, opts ...Option) *Operation {
	o := &Operation{
		kind:    kind,
		targets: append([]string(nil), targets...),
		backend: backend,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = NewRunner(executor.New(false, false))
	}
	o.log = o.log.With().
		Str("operation", kind.String()).
		Str("manager", backend.Name()).
		Strs("targets", o.targets).
		Logger()
	return o
}

// Phase returns the current phase.
func (o *Operation) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// CompletionSeen reports whether the output contained a completion keyword.
func (o *Operation) CompletionSeen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completionSeen
}

// Snapshot returns a copy of the observable state.
func (o *Operation) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Operation) snapshotLocked() Snapshot {
	return Snapshot{
		Kind:       o.kind,
		Backend:    o.backend.Name(),
		Phase:      o.phase,
		Targets:    append([]string(nil), o.targets...),
		Privileged: o.backend.NeedsSudo(),
		Status:     o.status,
		Output:     o.output.String(),
		Details:    append([]manager.PackageDetail(nil), o.details...),
		ExitCode:   o.exitCode,
		Err:        o.err,
		Conflict:   o.report,
	}
}

// transition moves to phase under the lock and notifies observers.
func (o *Operation) transition(phase Phase, status string) {
	o.mu.Lock()
	o.log.Debug().Str("from", o.phase.String()).Str("to", phase.String()).Msg("phase transition")
	o.phase = phase
	if status != "" {
		o.status = status
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
}

func (o *Operation) notify(snap Snapshot) {
	for _, fn := range o.observers {
		fn(snap)
	}
}

func (o *Operation) fail(err error) error {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()

	o.log.Debug().Err(err).Msg("operation failed")
	o.transition(Failed, err.Error())
	return err
}

// Load fetches details for every target concurrently. Targets whose details
// fail are left out of the display set; when all fail the operation fails
// with ErrAllDetailsFailed.
func (o *Operation) Load(ctx context.Context) error {
	if phase := o.Phase(); phase != Idle {
		return transitionError("load details", phase)
	}
	if len(o.targets) == 0 && o.kind.TargetsOptional() {
		status := fmt.Sprintf("Ready to %s all packages", o.kind)
		if o.kind == Update {
			status = "Ready to refresh package lists"
		}
		o.transition(Confirming, status)
		return nil
	}
	o.transition(Loading, "Loading package information...")

	results := make([]*manager.PackageDetail, len(o.targets))
	var wg sync.WaitGroup
	for i, target := range o.targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			detail, err := o.backend.Details(ctx, target)
			if err != nil {
				o.log.Debug().Err(err).Str("target", target).Msg("failed to load details")
				return
			}
			results[i] = detail
		}(i, target)
	}
	wg.Wait()

	var details []manager.PackageDetail
	for _, d := range results {
		if d != nil {
			details = append(details, *d)
		}
	}
	if len(details) == 0 {
		return o.fail(ErrAllDetailsFailed)
	}

	o.mu.Lock()
	o.details = details
	o.mu.Unlock()

	o.transition(Confirming, fmt.Sprintf("Ready to %s %d package(s)", o.kind, len(o.targets)))
	return nil
}

// Confirm runs the operation and blocks until it reaches a terminal phase.
// It returns nil on Complete, a *ConflictError on ConflictDetected and the
// failure cause on Failed. Confirm may be called from Idle to skip Load.
// Completion keywords in the output only update the status; the exit status
// decides the terminal phase, since apt prints "Done" long before it ends.
func (o *Operation) Confirm() error {
	if phase := o.Phase(); phase != Idle && phase != Confirming {
		return transitionError("confirm", phase)
	}

	// the installed set is about to change whatever the outcome
	o.invalidate()

	cmd, err := o.command()
	if err != nil {
		return o.fail(err)
	}

	o.transition(Executing, o.kind.progressStatus())

	stream, err := o.runner.Stream(cmd)
	if err != nil {
		return o.fail(err)
	}

	o.transition(StreamingOutput, "")
	for line := range stream.Lines() {
		o.ingest(line.Text)
	}

	return o.finish(stream.Wait())
}

// command builds the tool invocation for the operation's kind.
func (o *Operation) command() (executor.Command, error) {
	switch o.kind {
	case Install:
		return o.backend.InstallCommand(o.targets)
	case Remove:
		if !o.autoremove {
			return o.backend.RemoveCommand(o.targets)
		}
		if r, ok := o.backend.(AutoremoveRemover); ok {
			return r.RemoveAutoremoveCommand(o.targets)
		}
	case Purge:
		if p, ok := o.backend.(Purger); ok {
			return p.PurgeCommand(o.targets)
		}
	case Upgrade:
		if u, ok := o.backend.(Upgrader); ok {
			return u.UpgradeCommand(o.targets)
		}
	case Update:
		if r, ok := o.backend.(Refresher); ok {
			return r.UpdateCommand(), nil
		}
	}
	return executor.Command{}, fmt.Errorf("%w: %s with %s", ErrUnsupported, o.kind, o.backend.Name())
}

// invalidate drops the installed-package index when the kind can change it.
func (o *Operation) invalidate() {
	if o.index == nil || !o.kind.ChangesInstalled() {
		return
	}
	if err := o.index.Invalidate(); err != nil {
		o.log.Debug().Err(err).Msg("failed to invalidate installed-package index")
	}
}

// ingest appends one line, updates the status and re-runs the classifier on
// the whole output, since conflict text may span several lines.
func (o *Operation) ingest(text string) {
	o.mu.Lock()
	o.output.WriteString(text)
	o.output.WriteByte('\n')

	lower := strings.ToLower(text)
	for _, p := range progressKeywords {
		if containsAny(lower, p.words) {
			o.status = p.status
			break
		}
	}
	if containsAny(lower, completionKeywords) {
		o.completionSeen = true
		o.status = "Finishing..."
	}

	o.pending = conflict.Classify(o.output.String())
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
}

// finish resolves the terminal phase from the exit status.
func (o *Operation) finish(code int, err error) error {
	o.mu.Lock()
	o.exitCode = code
	o.mu.Unlock()

	var exitErr *executor.ExitError
	switch {
	case err == nil && code == 0:
		// a listing taken while the tool ran may have re-cached the old set
		o.invalidate()
		o.transition(Complete, o.kind.doneStatus())
		return nil

	case errors.Is(err, executor.ErrAuthCancelled):
		return o.fail(err)

	case errors.As(err, &exitErr) || err == nil:
		o.mu.Lock()
		report := o.pending
		if report == nil {
			report = conflict.Classify(o.output.String())
		}
		o.mu.Unlock()

		if report == nil {
			if err == nil {
				err = &executor.ExitError{Name: o.backend.Name(), Code: code}
			}
			return o.fail(err)
		}
		return o.conflict(report)

	default:
		return o.fail(err)
	}
}

func (o *Operation) conflict(report *conflict.Report) error {
	o.mu.Lock()
	o.report = report
	o.err = &ConflictError{Report: report}
	handoff := Handoff{
		Kind:    o.kind,
		Backend: o.backend.Name(),
		Targets: append([]string(nil), o.targets...),
		Summary: report.Summary,
		Output:  o.output.String(),
		Report:  report,
	}
	err := o.err
	o.mu.Unlock()

	o.log.Debug().Str("category", report.Category.String()).Msg("conflict detected")
	o.transition(ConflictDetected, report.Summary)

	if o.onConflict != nil {
		o.onConflict(handoff)
	}
	return err
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
