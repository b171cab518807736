// Package cli implements the host process spawner used to run the Claude
// CLI directly on the local machine.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the direct child exited.
const waitDelay = 2 * time.Second

// Spawner runs processes on the host.
type Spawner struct {
	logger zerolog.Logger
}

// Ensure Spawner implements ports.ProcessSpawner.
var _ ports.ProcessSpawner = (*Spawner)(nil)

// NewSpawner creates a host spawner. A nil logger disables logging.
func NewSpawner(logger *zerolog.Logger) *Spawner {
	s := &Spawner{logger: zerolog.Nop()}
	if logger != nil {
		s.logger = logger.With().Str("component", "spawner").Logger()
	}

	return s
}

// Spawn starts executable with piped stdio. The child's environment is the
// parent's environment overlaid with opts.Env.
func (s *Spawner) Spawn(
	ctx context.Context,
	executable string,
	args []string,
	opts ports.SpawnOptions,
) (ports.ProcessHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, clauderrs.NewProcessError(
			clauderrs.ErrCodeProcessSpawnFailed,
			"spawn cancelled",
			err,
			-1,
			"",
		)
	}

	cmd := exec.Command(executable, args...)
	cmd.Env = buildEnvironment(opts.Env)
	cmd.Dir = opts.Cwd
	cmd.WaitDelay = waitDelay

	h := newHandle(cmd, s.logger)
	if err := h.setupPipes(); err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		h.closePipes()

		return nil, spawnError(executable, err)
	}

	s.logger.Debug().
		Str("executable", executable).
		Int("pid", cmd.Process.Pid).
		Str("cwd", opts.Cwd).
		Msg("process started")

	return h, nil
}

// ExecFile runs executable to completion, enforcing opts.Timeout.
func (s *Spawner) ExecFile(
	ctx context.Context,
	executable string,
	args []string,
	opts ports.ExecOptions,
) (ports.ExecResult, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, executable, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ports.ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	command := strings.TrimSpace(executable + " " + strings.Join(args, " "))

	if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return result, clauderrs.NewTimeoutError(
			fmt.Sprintf("command timed out after %s", opts.Timeout),
			runCtx.Err(),
			opts.Timeout,
		)
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, clauderrs.NewProcessError(
			clauderrs.ErrCodeProcessExited,
			"command exited with non-zero status",
			err,
			exitErr.ExitCode(),
			result.Stderr,
		).WithCommand(command)
	}

	return result, spawnError(executable, err)
}

// FindExecutable resolves name to an executable path. Paths containing a
// separator are returned unchanged when they exist.
func FindExecutable(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if _, err := os.Stat(name); err != nil {
			return "", spawnError(name, err)
		}

		return name, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", spawnError(name, err)
	}

	return path, nil
}

func buildEnvironment(overlay map[string]string) []string {
	env := os.Environ()
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}

	return env
}

func spawnError(executable string, err error) *clauderrs.ProcessError {
	code := clauderrs.ErrCodeProcessSpawnFailed
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		code = clauderrs.ErrCodeProcessNotFound
	}

	return clauderrs.NewProcessError(
		code,
		fmt.Sprintf("failed to start %s", executable),
		err,
		-1,
		"",
	).WithCommand(executable)
}
