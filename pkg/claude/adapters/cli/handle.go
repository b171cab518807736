package cli

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

const readBufferSize = 32 * 1024

// Handle is a running host process with piped stdio.
type Handle struct {
	cmd    *exec.Cmd
	logger zerolog.Logger

	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// writeMu serializes stdin writes and close. Output delivery only
	// takes mu, so a write blocked on a full pipe does not stall it.
	writeMu     sync.Mutex
	stdinClosed atomic.Bool

	mu        sync.Mutex
	stdoutFns []func([]byte)
	stderrFns []func([]byte)
	exitFns   []func(*int, string)
	errorFns  []func(error)

	watchOnce sync.Once
}

// Ensure Handle implements ports.ProcessHandle.
var _ ports.ProcessHandle = (*Handle)(nil)

func newHandle(cmd *exec.Cmd, logger zerolog.Logger) *Handle {
	return &Handle{cmd: cmd, logger: logger}
}

func (h *Handle) setupPipes() error {
	stdin, err := h.cmd.StdinPipe()
	if err != nil {
		return pipeError("stdin", err)
	}
	h.stdin = stdin

	stdout, err := h.cmd.StdoutPipe()
	if err != nil {
		h.closePipes()

		return pipeError("stdout", err)
	}
	h.stdout = stdout

	stderr, err := h.cmd.StderrPipe()
	if err != nil {
		h.closePipes()

		return pipeError("stderr", err)
	}
	h.stderr = stderr

	return nil
}

func (h *Handle) closePipes() {
	for _, c := range []io.Closer{h.stdin, h.stdout, h.stderr} {
		if c != nil {
			_ = c.Close()
		}
	}
}

// PID returns the OS process id.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}

	return h.cmd.Process.Pid
}

// WriteStdin writes data to stdin, reporting false on a closed or broken pipe.
func (h *Handle) WriteStdin(data []byte) bool {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.stdinClosed.Load() {
		return false
	}
	if _, err := h.stdin.Write(data); err != nil {
		h.logger.Debug().Err(err).Int("pid", h.PID()).Msg("stdin write failed")

		return false
	}

	return true
}

// CloseStdin closes the stdin pipe.
func (h *Handle) CloseStdin() error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.stdinClosed.Swap(true) {
		return nil
	}

	return h.stdin.Close()
}

// Kill delivers sig to the process.
func (h *Handle) Kill(sig os.Signal) {
	if h.cmd.Process == nil {
		return
	}
	if err := h.cmd.Process.Signal(sig); err != nil {
		h.logger.Debug().Err(err).Int("pid", h.PID()).Msg("signal not delivered")
	}
}

// OnStdout registers a stdout listener.
func (h *Handle) OnStdout(fn func([]byte)) {
	h.mu.Lock()
	h.stdoutFns = append(h.stdoutFns, fn)
	h.mu.Unlock()
}

// OnStderr registers a stderr listener.
func (h *Handle) OnStderr(fn func([]byte)) {
	h.mu.Lock()
	h.stderrFns = append(h.stderrFns, fn)
	h.mu.Unlock()
}

// OnExit registers an exit listener.
func (h *Handle) OnExit(fn func(*int, string)) {
	h.mu.Lock()
	h.exitFns = append(h.exitFns, fn)
	h.mu.Unlock()
}

// OnError registers an error listener.
func (h *Handle) OnError(fn func(error)) {
	h.mu.Lock()
	h.errorFns = append(h.errorFns, fn)
	h.mu.Unlock()
}

// Watch starts the reader goroutines and the exit waiter.
func (h *Handle) Watch() {
	h.watchOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.pump(h.stdout, func() []func([]byte) { return h.stdoutFns }, true)
		}()
		go func() {
			defer wg.Done()
			// stderr read failures are not reported.
			h.pump(h.stderr, func() []func([]byte) { return h.stderrFns }, false)
		}()
		go func() {
			wg.Wait()
			h.wait()
		}()
	})
}

func (h *Handle) pump(r io.Reader, listeners func() []func([]byte), reportErrors bool) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			h.mu.Lock()
			fns := append([]func([]byte){}, listeners()...)
			h.mu.Unlock()

			for _, fn := range fns {
				fn(chunk)
			}
		}
		if err == nil {
			continue
		}
		if reportErrors && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
			h.emitError(clauderrs.NewTransportError(
				clauderrs.ErrCodeReadFailed,
				"failed to read process output",
				err,
			))
		}

		return
	}
}

func (h *Handle) wait() {
	err := h.cmd.Wait()
	h.stdinClosed.Store(true)

	h.mu.Lock()
	fns := append([]func(*int, string){}, h.exitFns...)
	h.mu.Unlock()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		h.emitError(clauderrs.NewProcessError(
			clauderrs.ErrCodeProcessExited,
			"failed waiting for process",
			err,
			-1,
			"",
		))
	}

	code, signal := exitStatus(h.cmd.ProcessState)
	h.logger.Debug().Int("pid", h.PID()).Str("signal", signal).Msg("process exited")

	for _, fn := range fns {
		fn(code, signal)
	}
}

func (h *Handle) emitError(err error) {
	h.mu.Lock()
	fns := append([]func(error){}, h.errorFns...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}

func exitStatus(state *os.ProcessState) (*int, string) {
	if state == nil {
		return nil, ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return nil, signalName(ws.Signal())
	}
	code := state.ExitCode()

	return &code, ""
}

func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	default:
		return sig.String()
	}
}

func pipeError(name string, err error) error {
	return clauderrs.NewTransportError(
		clauderrs.ErrCodePipeSetup,
		name+" pipe failed",
		err,
	)
}
