package debugger

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadPID returns the pid of a child that has already exited and been
// reaped, so kill attempts against it fail.
func deadPID(t *testing.T) int {
	t.Helper()

	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skip("no 'true' executable available")
	}
	pid := cmd.Process.Pid
	require.NoError(t, cmd.Wait())
	return pid
}

// fakeRenderer records wholesale marker redraws.
type fakeRenderer struct {
	mu    sync.Mutex
	syncs [][]Marker
}

func (r *fakeRenderer) SetMarkers(markers []Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs = append(r.syncs, markers)
}

func (r *fakeRenderer) lastSync() ([]Marker, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.syncs) == 0 {
		return nil, 0
	}
	return r.syncs[len(r.syncs)-1], len(r.syncs)
}

// fakeBuilder completes builds with a canned result.
type fakeBuilder struct {
	result BuildResult
	gotLoc SourceLocation
	gotOut string
}

func (b *fakeBuilder) Build(ctx context.Context, loc SourceLocation, output string) <-chan BuildResult {
	b.gotLoc = loc
	b.gotOut = output
	ch := make(chan BuildResult, 1)
	ch <- b.result
	return ch
}

func TestManagerAttachUnknownKeyIsSoft(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)

	s, ok := m.Attach("nope")
	assert.False(t, ok)
	assert.Nil(t, s)
	assert.Nil(t, m.Active())
}

func TestManagerAttachSetsAndReplacesActive(t *testing.T) {
	store := NewMemoryStore()
	store.Put("a", Record{Key: "a", Addr: "localhost:1"})
	store.Put("b", Record{Key: "b", Addr: "localhost:2"})
	m := NewManager(store, nil)

	sa, ok := m.Attach("a")
	require.True(t, ok)
	assert.Same(t, sa, m.Active())

	sb, ok := m.Attach("b")
	require.True(t, ok)
	assert.Same(t, sb, m.Active(), "attach replaces the active pointer")
}

func TestManagerStopUnknownKeyMutatesNothing(t *testing.T) {
	store := NewMemoryStore()
	store.Put("keep", Record{Key: "keep", PID: -1})
	m := NewManager(store, nil)

	m.Stop("nope")

	assert.Len(t, store.List(), 1)
	_, ok := store.Get("keep")
	assert.True(t, ok)
}

func TestManagerStopRemovesEntryEvenWhenKillFails(t *testing.T) {
	pid := deadPID(t)

	store := NewMemoryStore()
	store.Put("gone", Record{Key: "gone", PID: pid})
	m := NewManager(store, nil)

	m.Stop("gone")

	_, ok := store.Get("gone")
	assert.False(t, ok, "registry consistency must not depend on kill success")
}

func TestManagerStopLeavesActivePointer(t *testing.T) {
	pid := deadPID(t)

	store := NewMemoryStore()
	store.Put("x", Record{Key: "x", PID: pid, Addr: "localhost:1"})
	m := NewManager(store, nil)

	_, ok := m.Attach("x")
	require.True(t, ok)

	m.Stop("x")
	assert.NotNil(t, m.Active(), "plain stop does not clear the active pointer")
}

func TestManagerStopActive(t *testing.T) {
	pid := deadPID(t)

	store := NewMemoryStore()
	store.Put("x", Record{Key: "x", PID: pid, Addr: "localhost:1"})
	m := NewManager(store, nil)

	_, ok := m.Attach("x")
	require.True(t, ok)

	m.StopActive()
	assert.Nil(t, m.Active())
	assert.Empty(t, store.List())

	// Idempotent from the operator's perspective.
	m.StopActive()
	assert.Nil(t, m.Active())
}

func TestManagerOperatorCommandsRequireActiveSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := m.AddBreakpoint(ctx, "/tmp/a.go", 10)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	err = m.ClearBreakpoint(ctx, "/tmp/a.go", 10)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = m.Breakpoints(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = m.Continue(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	err = m.SyncMarkers(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestManagerRoutesCommandsToActiveSession(t *testing.T) {
	stub := newStubDebugger(t)
	store := NewMemoryStore()
	store.Put("s1", stub.record("s1"))
	m := NewManager(store, nil)

	_, ok := m.Attach("s1")
	require.True(t, ok)

	ctx := context.Background()

	bp, err := m.AddBreakpoint(ctx, "/tmp/a.go", 10)
	require.NoError(t, err)
	assert.NotZero(t, bp.ID)

	bps, err := m.Breakpoints(ctx)
	require.NoError(t, err)
	assert.Len(t, bps, 1)

	state, err := m.Continue(ctx)
	require.NoError(t, err)
	file, line, hit := state.AtBreakpoint()
	require.True(t, hit)
	assert.Equal(t, "/tmp/a.go", file)
	assert.Equal(t, 10, line)

	require.NoError(t, m.ClearBreakpoint(ctx, "/tmp/a.go", 10))
	bps, err = m.Breakpoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, bps)
}

func TestManagerMarkerSync(t *testing.T) {
	stub := newStubDebugger(t)
	store := NewMemoryStore()
	store.Put("s1", stub.record("s1"))

	m := NewManager(store, nil)
	renderer := &fakeRenderer{}
	m.SetMarkerRenderer(renderer)

	_, ok := m.Attach("s1")
	require.True(t, ok)

	ctx := context.Background()

	_, err := m.AddBreakpoint(ctx, "/tmp/a.go", 10)
	require.NoError(t, err)

	markers, n := renderer.lastSync()
	require.Equal(t, 1, n, "adding a breakpoint triggers a marker redraw")
	assert.Equal(t, []Marker{{File: "/tmp/a.go", Line: 10}}, markers)

	require.NoError(t, m.ClearBreakpoint(ctx, "/tmp/a.go", 10))
	markers, n = renderer.lastSync()
	require.Equal(t, 2, n)
	assert.Empty(t, markers, "markers are redrawn wholesale")
}

func TestManagerDebugBuild(t *testing.T) {
	dlv, program := fakeDlv(t)

	store := NewMemoryStore()
	m := NewManager(store, nil)
	m.Launcher().DlvPath = dlv

	builder := &fakeBuilder{result: BuildResult{Program: program}}
	loc := SourceLocation{File: "/src/pkg/thing_test.go", Line: 42}

	s, err := m.DebugBuild(context.Background(), builder, loc, "TestThing")
	require.NoError(t, err)
	t.Cleanup(func() { m.Stop(s.Key()) })

	assert.Equal(t, loc, builder.gotLoc)
	assert.NotEmpty(t, builder.gotOut, "an output path is proposed to the builder")
	assert.Equal(t, "TestThing", s.Record().Desc)
	assert.Same(t, s, m.Active())
	assert.Contains(t, store.List(), s.Key())
}

func TestManagerDebugBuildFailure(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)

	buildErr := errors.New("compile failed")
	builder := &fakeBuilder{result: BuildResult{Err: buildErr}}

	_, err := m.DebugBuild(context.Background(), builder, SourceLocation{}, "x")
	require.ErrorIs(t, err, buildErr)
	assert.Empty(t, m.Sessions(), "failed builds launch nothing")
}

func TestManagerDebugBuildHonorsContext(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A builder that never completes.
	builder := builderFunc(func(context.Context, SourceLocation, string) <-chan BuildResult {
		return make(chan BuildResult)
	})

	_, err := m.DebugBuild(ctx, builder, SourceLocation{}, "x")
	require.ErrorIs(t, err, context.Canceled)
}

// builderFunc adapts a function to the BuildOrchestrator interface.
type builderFunc func(context.Context, SourceLocation, string) <-chan BuildResult

func (f builderFunc) Build(ctx context.Context, loc SourceLocation, output string) <-chan BuildResult {
	return f(ctx, loc, output)
}
