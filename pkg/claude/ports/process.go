// Package ports defines interfaces that the domain needs from infrastructure.
// These are "ports" in hexagonal architecture - contracts defined by
// domain needs, not by external systems.
package ports

import (
	"context"
	"os"
	"time"
)

// ProcessSpawner starts OS processes with piped stdio.
// Implementations decide where the process runs (host or container).
type ProcessSpawner interface {
	// Spawn starts a long-lived process. The returned handle does not
	// deliver output until Watch is called.
	Spawn(
		ctx context.Context,
		executable string,
		args []string,
		opts SpawnOptions,
	) (ProcessHandle, error)

	// ExecFile runs a process to completion and collects its output.
	// Exceeding opts.Timeout kills the process and yields a
	// clauderrs.TimeoutError; a non-zero exit yields a clauderrs.ProcessError.
	ExecFile(
		ctx context.Context,
		executable string,
		args []string,
		opts ExecOptions,
	) (ExecResult, error)
}

// SpawnOptions configures a spawned process.
type SpawnOptions struct {
	// Cwd is the working directory. Empty inherits the parent's.
	Cwd string
	// Env is overlaid on top of the inherited environment.
	Env map[string]string
}

// ExecOptions configures a one-shot process run.
type ExecOptions struct {
	// Timeout bounds the whole run. Zero means no bound.
	Timeout time.Duration
}

// ExecResult holds the collected output of a one-shot run.
type ExecResult struct {
	Stdout string
	Stderr string
}

// ProcessHandle is a running child process.
//
// Listener registration methods must be called before Watch. Listeners
// are invoked from reader goroutines owned by the handle.
type ProcessHandle interface {
	// PID returns the OS process id.
	PID() int

	// WriteStdin writes data to the child's stdin. It reports false
	// when the pipe is closed or the write failed.
	WriteStdin(data []byte) bool

	// CloseStdin signals end of input.
	CloseStdin() error

	// Kill delivers sig to the process. Errors from an already
	// exited process are ignored.
	Kill(sig os.Signal)

	// OnStdout registers a listener for stdout chunks.
	OnStdout(fn func(chunk []byte))

	// OnStderr registers a listener for stderr chunks.
	OnStderr(fn func(chunk []byte))

	// OnExit registers a listener called once the process exited and
	// both output streams drained. code is nil when the process was
	// terminated by a signal, in which case signal names it.
	OnExit(fn func(code *int, signal string))

	// OnError registers a listener for stream read failures.
	OnError(fn func(err error))

	// Watch starts delivering output and exit notifications.
	// Calling it more than once has no effect.
	Watch()
}
