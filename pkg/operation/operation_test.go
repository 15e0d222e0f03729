package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"birdnest/internal/executor"
	"birdnest/pkg/conflict"
	"birdnest/pkg/database"
	"birdnest/pkg/manager"

	"github.com/spf13/afero"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	details  map[string]*manager.PackageDetail
	buildErr error
	built    []executor.Command
	mu       sync.Mutex
}

func (b *fakeBackend) Name() string    { return "fake" }
func (b *fakeBackend) NeedsSudo() bool { return true }

func (b *fakeBackend) Details(_ context.Context, name string) (*manager.PackageDetail, error) {
	if d, ok := b.details[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("package '%s' not found", name)
}

func (b *fakeBackend) command(action string, targets []string) (executor.Command, error) {
	if b.buildErr != nil {
		return executor.Command{}, b.buildErr
	}
	cmd := executor.Command{Name: "fake", Args: append([]string{action}, targets...), Elevate: true}
	b.mu.Lock()
	b.built = append(b.built, cmd)
	b.mu.Unlock()
	return cmd, nil
}

func (b *fakeBackend) InstallCommand(targets []string) (executor.Command, error) {
	return b.command("install", targets)
}

func (b *fakeBackend) RemoveCommand(targets []string) (executor.Command, error) {
	return b.command("remove", targets)
}

// fullBackend also supports purge, upgrade, list refresh and remove with
// autoremove.
type fullBackend struct {
	*fakeBackend
}

func (b fullBackend) PurgeCommand(targets []string) (executor.Command, error) {
	return b.command("purge", targets)
}

func (b fullBackend) UpgradeCommand(targets []string) (executor.Command, error) {
	return b.command("upgrade", targets)
}

func (b fullBackend) UpdateCommand() executor.Command {
	cmd, _ := b.command("update", nil) //nolint:errcheck
	return cmd
}

func (b fullBackend) RemoveAutoremoveCommand(targets []string) (executor.Command, error) {
	cmd, err := b.command("remove", targets)
	cmd.Args = append(cmd.Args, "--autoremove")
	return cmd, err
}

type fakeStream struct {
	lines chan executor.Line
	code  int
	err   error
}

func (s *fakeStream) Lines() <-chan executor.Line { return s.lines }
func (s *fakeStream) Wait() (int, error)          { return s.code, s.err }

type fakeRunner struct {
	output   []string
	code     int
	err      error
	startErr error
	got      []executor.Command
}

func (r *fakeRunner) Stream(cmd executor.Command) (LineStream, error) {
	r.got = append(r.got, cmd)
	if r.startErr != nil {
		return nil, r.startErr
	}
	lines := make(chan executor.Line, len(r.output))
	for _, text := range r.output {
		lines <- executor.Line{Text: text}
	}
	close(lines)
	return &fakeStream{lines: lines, code: r.code, err: r.err}, nil
}

type fakeIndex struct{ calls int }

func (i *fakeIndex) Invalidate() error {
	i.calls++
	return nil
}

func detailsFor(names ...string) map[string]*manager.PackageDetail {
	m := make(map[string]*manager.PackageDetail)
	for _, n := range names {
		m[n] = &manager.PackageDetail{Name: n, Version: "1.0"}
	}
	return m
}

func exitErr(code int, stderr string) error {
	return &executor.ExitError{Name: "fake", Code: code, Stderr: stderr}
}

func TestLoadKeepsOrderAndDropsFailures(t *testing.T) {
	backend := &fakeBackend{details: detailsFor("a", "c")}
	op := New(Install, backend, []string{"a", "missing", "c"})

	require.NoError(t, op.Load(context.Background()))

	snap := op.Snapshot()
	assert.Equal(t, Confirming, snap.Phase)
	require.Len(t, snap.Details, 2)
	assert.Equal(t, "a", snap.Details[0].Name)
	assert.Equal(t, "c", snap.Details[1].Name)
	assert.Equal(t, []string{"a", "missing", "c"}, snap.Targets)
}

func TestLoadAllFail(t *testing.T) {
	op := New(Remove, &fakeBackend{}, []string{"x", "y"})

	err := op.Load(context.Background())
	assert.ErrorIs(t, err, ErrAllDetailsFailed)
	assert.Equal(t, Failed, op.Phase())
	assert.Equal(t, "Failed to load information for any packages", op.Snapshot().Status)
}

func TestLoadTwiceIsInvalid(t *testing.T) {
	op := New(Install, &fakeBackend{details: detailsFor("a")}, []string{"a"})
	require.NoError(t, op.Load(context.Background()))
	assert.ErrorIs(t, op.Load(context.Background()), ErrInvalidTransition)
}

func TestConfirmComplete(t *testing.T) {
	backend := &fakeBackend{details: detailsFor("vim")}
	runner := &fakeRunner{output: []string{
		"Reading package lists... Done",
		"Building dependency tree... Done",
		"Unpacking vim (2:9.1) ...",
		"Setting up vim (2:9.1) ...",
	}}
	index := &fakeIndex{}

	var phases []Phase
	op := New(Install, backend, []string{"vim"},
		WithRunner(runner),
		WithIndex(index),
		WithObserver(func(s Snapshot) {
			if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
				phases = append(phases, s.Phase)
			}
		}))

	require.NoError(t, op.Load(context.Background()))
	require.NoError(t, op.Confirm())

	assert.Equal(t, []Phase{Loading, Confirming, Executing, StreamingOutput, Complete}, phases)
	assert.Equal(t, 2, index.calls, "before launch and after success")
	assert.True(t, op.CompletionSeen())

	snap := op.Snapshot()
	assert.Equal(t, "Installation complete!", snap.Status)
	assert.Contains(t, snap.Output, "Setting up vim")
	assert.Nil(t, snap.Conflict)
	assert.Equal(t, []string{"install", "vim"}, runner.got[0].Args)
}

func TestCompletionKeywordDoesNotEndOperation(t *testing.T) {
	runner := &fakeRunner{
		output: []string{"Reading package lists... Done", "E: Sub-process /usr/bin/dpkg returned an error code (1)"},
		code:   100,
		err:    exitErr(100, "E: Sub-process /usr/bin/dpkg returned an error code (1)"),
	}
	op := New(Remove, &fakeBackend{}, []string{"vim"}, WithRunner(runner))

	err := op.Confirm()

	var ee *executor.ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 100, ee.Code)
	assert.Equal(t, Failed, op.Phase())
	assert.Equal(t, 100, op.Snapshot().ExitCode)
}

func TestProgressStatus(t *testing.T) {
	var statuses []string
	runner := &fakeRunner{output: []string{"Reading package lists", "Building dependency tree", "Removing vim (2:9.1) ..."}}
	op := New(Remove, &fakeBackend{}, []string{"vim"},
		WithRunner(runner),
		WithObserver(func(s Snapshot) {
			if s.Phase == StreamingOutput {
				statuses = append(statuses, s.Status)
			}
		}))

	require.NoError(t, op.Confirm())
	assert.Equal(t, []string{
		"Removing packages...",
		"Reading package lists...",
		"Building dependency tree...",
		"Removing packages...",
	}, statuses)
}

func TestConfirmConflictDetected(t *testing.T) {
	output := []string{
		"Reading package lists...",
		"The following packages have unmet dependencies:",
		" vim : Depends: vim-runtime (= 2:9.1) but it is not going to be installed",
		"E: Unable to correct problems, you have held broken packages.",
	}
	runner := &fakeRunner{output: output, code: 100, err: exitErr(100, output[3])}

	var handoff *Handoff
	op := New(Install, &fakeBackend{}, []string{"vim"},
		WithRunner(runner),
		WithConflictHandler(func(h Handoff) { handoff = &h }))

	err := op.Confirm()

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, conflict.UnmetDependencies, ce.Report.Category)
	assert.Equal(t, ConflictDetected, op.Phase())

	require.NotNil(t, handoff)
	assert.Equal(t, []string{"vim"}, handoff.Targets)
	assert.Equal(t, ce.Report.Summary, handoff.Summary)
	assert.Contains(t, handoff.Output, "unmet dependencies")
}

func TestConflictNotCommittedOnSuccess(t *testing.T) {
	runner := &fakeRunner{output: []string{"note: foo conflicts with bar, replacing", "Setting up foo"}}
	op := New(Install, &fakeBackend{}, []string{"foo"}, WithRunner(runner))

	require.NoError(t, op.Confirm())
	assert.Equal(t, Complete, op.Phase())
	assert.Nil(t, op.Snapshot().Conflict)
}

func TestAuthFailureTakesPriorityOverConflict(t *testing.T) {
	for _, code := range []int{126, 127} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			runner := &fakeRunner{
				output: []string{"foo conflicts with bar", "The following packages have unmet dependencies:"},
				code:   code,
				err:    executor.ErrAuthCancelled,
			}
			called := false
			op := New(Remove, &fakeBackend{}, []string{"foo"},
				WithRunner(runner),
				WithConflictHandler(func(Handoff) { called = true }))

			err := op.Confirm()
			assert.ErrorIs(t, err, executor.ErrAuthCancelled)
			assert.Equal(t, Failed, op.Phase())
			assert.Equal(t, "Authentication cancelled or failed. Please try again.", op.Snapshot().Status)
			assert.Nil(t, op.Snapshot().Conflict)
			assert.False(t, called)
		})
	}
}

func TestFailedKeepsRawStderr(t *testing.T) {
	runner := &fakeRunner{
		output: []string{"E: Could not get lock /var/lib/dpkg/lock-frontend"},
		code:   100,
		err:    exitErr(100, "E: Could not get lock /var/lib/dpkg/lock-frontend\n"),
	}
	op := New(Install, &fakeBackend{}, []string{"vim"}, WithRunner(runner))

	err := op.Confirm()
	var ee *executor.ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "E: Could not get lock /var/lib/dpkg/lock-frontend\n", ee.Stderr)
	assert.Equal(t, Failed, op.Phase())
}

func TestLaunchFailure(t *testing.T) {
	launch := &executor.LaunchError{Name: "fake", Err: errors.New("executable file not found")}
	op := New(Install, &fakeBackend{}, []string{"vim"}, WithRunner(&fakeRunner{startErr: launch}))

	err := op.Confirm()
	var le *executor.LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, Failed, op.Phase())
}

func TestCommandBuildFailure(t *testing.T) {
	runner := &fakeRunner{}
	op := New(Install, &fakeBackend{buildErr: manager.ErrInvalidAppID}, []string{"bad"}, WithRunner(runner))

	assert.ErrorIs(t, op.Confirm(), manager.ErrInvalidAppID)
	assert.Equal(t, Failed, op.Phase())
	assert.Empty(t, runner.got)
}

func TestConfirmAfterTerminalIsInvalid(t *testing.T) {
	op := New(Install, &fakeBackend{}, []string{"vim"}, WithRunner(&fakeRunner{}))
	require.NoError(t, op.Confirm())
	assert.ErrorIs(t, op.Confirm(), ErrInvalidTransition)
}

func TestDryRunExecutorCompletes(t *testing.T) {
	op := New(Remove, &fakeBackend{}, []string{"vim"}, WithRunner(NewRunner(executor.New(true, false))))

	require.NoError(t, op.Confirm())
	assert.Equal(t, Complete, op.Phase())
	assert.Equal(t, "Removal complete!", op.Snapshot().Status)
}

func TestPhaseTerminal(t *testing.T) {
	for _, p := range []Phase{Complete, ConflictDetected, Failed} {
		assert.True(t, p.Terminal(), p.String())
	}
	for _, p := range []Phase{Idle, Loading, Confirming, Executing, StreamingOutput} {
		assert.False(t, p.Terminal(), p.String())
	}
}

// hookRunner runs hook while the command is streaming.
type hookRunner struct {
	fakeRunner
	hook func()
}

func (r *hookRunner) Stream(cmd executor.Command) (LineStream, error) {
	r.hook()
	return r.fakeRunner.Stream(cmd)
}

func TestCompleteDropsCacheRebuiltDuringRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/status", []byte("Package: vim\nStatus: install ok installed\nVersion: 9.0\n\n"), 0o644))
	idx := database.NewIndex(database.NewCache(fs, "/cache", "/status"), nil)

	runner := &hookRunner{
		fakeRunner: fakeRunner{output: []string{"Setting up vim (9.1) ..."}},
		hook: func() {
			_, origin, err := idx.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, database.OriginStatus, origin)
		},
	}

	op := New(Install, &fakeBackend{}, []string{"vim"}, WithRunner(runner), WithIndex(idx))
	require.NoError(t, op.Confirm())
	assert.Equal(t, Complete, op.Phase())

	exists, err := afero.Exists(fs, "/cache")
	require.NoError(t, err)
	assert.False(t, exists, "cache written mid-run must not survive a successful install")
}

func TestFailureInvalidatesOnlyBeforeLaunch(t *testing.T) {
	index := &fakeIndex{}
	runner := &fakeRunner{code: 1, err: exitErr(1, "E: boom")}

	op := New(Remove, &fakeBackend{}, []string{"vim"}, WithRunner(runner), WithIndex(index))
	require.Error(t, op.Confirm())
	assert.Equal(t, Failed, op.Phase())
	assert.Equal(t, 1, index.calls)
}

func TestUpgradeAllSkipsDetails(t *testing.T) {
	backend := fullBackend{&fakeBackend{}}
	runner := &fakeRunner{output: []string{"3 upgraded, 0 newly installed"}}
	index := &fakeIndex{}

	op := New(Upgrade, backend, nil, WithRunner(runner), WithIndex(index))
	require.NoError(t, op.Load(context.Background()))
	assert.Equal(t, Confirming, op.Phase())
	assert.Equal(t, "Ready to upgrade all packages", op.Snapshot().Status)

	require.NoError(t, op.Confirm())
	assert.Equal(t, "Upgrade complete!", op.Snapshot().Status)
	assert.Equal(t, []string{"upgrade"}, runner.got[0].Args)
	assert.Equal(t, 2, index.calls)
}

func TestUpdateLeavesIndexAlone(t *testing.T) {
	index := &fakeIndex{}
	runner := &fakeRunner{}

	op := New(Update, fullBackend{&fakeBackend{}}, nil, WithRunner(runner), WithIndex(index))
	require.NoError(t, op.Load(context.Background()))
	assert.Equal(t, "Ready to refresh package lists", op.Snapshot().Status)
	require.NoError(t, op.Confirm())
	assert.Equal(t, "Package lists updated!", op.Snapshot().Status)
	assert.Equal(t, []string{"update"}, runner.got[0].Args)
	assert.Zero(t, index.calls)
}

func TestInstallStillNeedsTargets(t *testing.T) {
	op := New(Install, fullBackend{&fakeBackend{}}, nil)
	assert.ErrorIs(t, op.Load(context.Background()), ErrAllDetailsFailed)
}

func TestRemoveWithAutoremove(t *testing.T) {
	runner := &fakeRunner{}
	op := New(Remove, fullBackend{&fakeBackend{}}, []string{"vim"}, WithRunner(runner), WithAutoremove())

	require.NoError(t, op.Confirm())
	assert.Equal(t, []string{"remove", "vim", "--autoremove"}, runner.got[0].Args)
}

func TestPurge(t *testing.T) {
	runner := &fakeRunner{}
	op := New(Purge, fullBackend{&fakeBackend{}}, []string{"vim"}, WithRunner(runner))

	require.NoError(t, op.Confirm())
	assert.Equal(t, []string{"purge", "vim"}, runner.got[0].Args)
	assert.Equal(t, "Purge complete!", op.Snapshot().Status)
}

func TestUnsupportedKinds(t *testing.T) {
	for _, kind := range []Kind{Purge, Upgrade, Update} {
		op := New(kind, &fakeBackend{}, []string{"vim"}, WithRunner(&fakeRunner{}))
		err := op.Confirm()
		assert.ErrorIs(t, err, ErrUnsupported, kind.String())
		assert.Equal(t, Failed, op.Phase())
	}

	op := New(Remove, &fakeBackend{}, []string{"vim"}, WithRunner(&fakeRunner{}), WithAutoremove())
	assert.ErrorIs(t, op.Confirm(), ErrUnsupported)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "purge", Purge.String())
	assert.Equal(t, "Upgrade", Upgrade.Title())
	assert.True(t, Update.TargetsOptional())
	assert.False(t, Remove.TargetsOptional())
	assert.False(t, Update.ChangesInstalled())
}
