// Package testutil provides test doubles and fixtures.
package testutil

import (
	"context"
	"os"
	"sync"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
)

// SpawnCall records one Spawn invocation.
type SpawnCall struct {
	Executable string
	Args       []string
	Opts       ports.SpawnOptions
}

// ExecCall records one ExecFile invocation.
type ExecCall struct {
	Executable string
	Args       []string
	Opts       ports.ExecOptions
}

// FakeSpawner simulates process spawning for hermetic testing.
// Spawned handles never run anything; tests drive them directly.
type FakeSpawner struct {
	mu      sync.Mutex
	spawns  []SpawnCall
	execs   []ExecCall
	handles []*FakeHandle
	nextPID int

	// SpawnErr, when set, fails every Spawn.
	SpawnErr error
	// ExecFunc answers ExecFile calls. Nil returns an empty result.
	ExecFunc func(executable string, args []string) (ports.ExecResult, error)
}

// Ensure FakeSpawner implements ports.ProcessSpawner.
var _ ports.ProcessSpawner = (*FakeSpawner)(nil)

// NewFakeSpawner creates a new fake spawner.
func NewFakeSpawner() *FakeSpawner {
	return &FakeSpawner{nextPID: 1000}
}

// Spawn records the call and returns a fresh FakeHandle.
func (f *FakeSpawner) Spawn(
	_ context.Context,
	executable string,
	args []string,
	opts ports.SpawnOptions,
) (ports.ProcessHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.spawns = append(f.spawns, SpawnCall{Executable: executable, Args: args, Opts: opts})
	if f.SpawnErr != nil {
		return nil, f.SpawnErr
	}

	f.nextPID++
	h := NewFakeHandle(f.nextPID)
	f.handles = append(f.handles, h)

	return h, nil
}

// ExecFile records the call and delegates to ExecFunc.
func (f *FakeSpawner) ExecFile(
	_ context.Context,
	executable string,
	args []string,
	opts ports.ExecOptions,
) (ports.ExecResult, error) {
	f.mu.Lock()
	f.execs = append(f.execs, ExecCall{Executable: executable, Args: args, Opts: opts})
	fn := f.ExecFunc
	f.mu.Unlock()

	if fn == nil {
		return ports.ExecResult{}, nil
	}

	return fn(executable, args)
}

// SpawnCalls returns every recorded Spawn call.
func (f *FakeSpawner) SpawnCalls() []SpawnCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]SpawnCall(nil), f.spawns...)
}

// ExecCalls returns every recorded ExecFile call.
func (f *FakeSpawner) ExecCalls() []ExecCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]ExecCall(nil), f.execs...)
}

// Handle returns the i-th spawned handle.
func (f *FakeSpawner) Handle(i int) *FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.handles[i]
}

// LastHandle returns the most recently spawned handle, or nil.
func (f *FakeSpawner) LastHandle() *FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.handles) == 0 {
		return nil
	}

	return f.handles[len(f.handles)-1]
}

// FakeHandle is a scripted ProcessHandle. Emit methods invoke listeners
// synchronously on the calling goroutine.
type FakeHandle struct {
	pid int

	mu          sync.Mutex
	writes      []string
	signals     []os.Signal
	stdinClosed bool
	failWrites  bool
	watched     bool

	stdoutFns []func([]byte)
	stderrFns []func([]byte)
	exitFns   []func(*int, string)
	errorFns  []func(error)
}

// Ensure FakeHandle implements ports.ProcessHandle.
var _ ports.ProcessHandle = (*FakeHandle)(nil)

// NewFakeHandle creates a handle with the given pid.
func NewFakeHandle(pid int) *FakeHandle {
	return &FakeHandle{pid: pid}
}

// PID returns the fake pid.
func (h *FakeHandle) PID() int { return h.pid }

// WriteStdin records data unless writes are failing or stdin is closed.
func (h *FakeHandle) WriteStdin(data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failWrites || h.stdinClosed {
		return false
	}
	h.writes = append(h.writes, string(data))

	return true
}

// CloseStdin marks stdin closed.
func (h *FakeHandle) CloseStdin() error {
	h.mu.Lock()
	h.stdinClosed = true
	h.mu.Unlock()

	return nil
}

// Kill records sig.
func (h *FakeHandle) Kill(sig os.Signal) {
	h.mu.Lock()
	h.signals = append(h.signals, sig)
	h.mu.Unlock()
}

// OnStdout registers a stdout listener.
func (h *FakeHandle) OnStdout(fn func([]byte)) {
	h.mu.Lock()
	h.stdoutFns = append(h.stdoutFns, fn)
	h.mu.Unlock()
}

// OnStderr registers a stderr listener.
func (h *FakeHandle) OnStderr(fn func([]byte)) {
	h.mu.Lock()
	h.stderrFns = append(h.stderrFns, fn)
	h.mu.Unlock()
}

// OnExit registers an exit listener.
func (h *FakeHandle) OnExit(fn func(*int, string)) {
	h.mu.Lock()
	h.exitFns = append(h.exitFns, fn)
	h.mu.Unlock()
}

// OnError registers an error listener.
func (h *FakeHandle) OnError(fn func(error)) {
	h.mu.Lock()
	h.errorFns = append(h.errorFns, fn)
	h.mu.Unlock()
}

// Watch marks the handle as watched.
func (h *FakeHandle) Watch() {
	h.mu.Lock()
	h.watched = true
	h.mu.Unlock()
}

// Watched reports whether Watch was called.
func (h *FakeHandle) Watched() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.watched
}

// FailWrites makes subsequent WriteStdin calls report false.
func (h *FakeHandle) FailWrites(fail bool) {
	h.mu.Lock()
	h.failWrites = fail
	h.mu.Unlock()
}

// Writes returns everything written to stdin.
func (h *FakeHandle) Writes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.writes...)
}

// Signals returns every delivered signal.
func (h *FakeHandle) Signals() []os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]os.Signal(nil), h.signals...)
}

// EmitStdout delivers s to stdout listeners.
func (h *FakeHandle) EmitStdout(s string) {
	h.mu.Lock()
	fns := append([]func([]byte){}, h.stdoutFns...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn([]byte(s))
	}
}

// EmitStderr delivers s to stderr listeners.
func (h *FakeHandle) EmitStderr(s string) {
	h.mu.Lock()
	fns := append([]func([]byte){}, h.stderrFns...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn([]byte(s))
	}
}

// Exit delivers an exit notification.
func (h *FakeHandle) Exit(code *int, signal string) {
	h.mu.Lock()
	h.stdinClosed = true
	fns := append([]func(*int, string){}, h.exitFns...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(code, signal)
	}
}

// Fail delivers err to error listeners.
func (h *FakeHandle) Fail(err error) {
	h.mu.Lock()
	fns := append([]func(error){}, h.errorFns...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}
