// Package sandbox runs processes inside an already running Docker or
// Podman container by prefixing every command with a container exec
// invocation and delegating to a host spawner.
package sandbox

import (
	"context"
	"fmt"
	"sort"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// Runtime names a container runtime binary.
type Runtime string

const (
	// RuntimeDocker is the docker CLI.
	RuntimeDocker Runtime = "docker"
	// RuntimePodman is the podman CLI.
	RuntimePodman Runtime = "podman"
	// RuntimeAuto selects docker, then podman.
	RuntimeAuto Runtime = "auto"
)

// Spawner executes processes inside a container.
type Spawner struct {
	host      ports.ProcessSpawner
	runtime   Runtime
	container string
}

// Ensure Spawner implements ports.ProcessSpawner.
var _ ports.ProcessSpawner = (*Spawner)(nil)

// NewSpawner wraps host so that every process runs inside container.
// runtime must name a CLI; resolve RuntimeAuto with DetectRuntime first.
func NewSpawner(host ports.ProcessSpawner, runtime Runtime, container string) (*Spawner, error) {
	switch runtime {
	case RuntimeDocker, RuntimePodman:
	default:
		return nil, clauderrs.NewSandboxError(
			clauderrs.ErrCodeRuntimeUnavailable,
			fmt.Sprintf("runtime %q is not a container CLI, detect one with DetectRuntime", runtime),
			nil,
			string(runtime),
		)
	}

	return &Spawner{host: host, runtime: runtime, container: container}, nil
}

// Runtime returns the container runtime in use.
func (s *Spawner) Runtime() Runtime {
	return s.runtime
}

// Container returns the target container name.
func (s *Spawner) Container() string {
	return s.container
}

// Spawn runs executable inside the container. The working directory and
// environment are passed as exec flags rather than applied to the runtime
// CLI itself.
func (s *Spawner) Spawn(
	ctx context.Context,
	executable string,
	args []string,
	opts ports.SpawnOptions,
) (ports.ProcessHandle, error) {
	return s.host.Spawn(
		ctx,
		string(s.runtime),
		ExecArgs(s.container, executable, args, opts),
		ports.SpawnOptions{},
	)
}

// ExecFile runs executable to completion inside the container.
func (s *Spawner) ExecFile(
	ctx context.Context,
	executable string,
	args []string,
	opts ports.ExecOptions,
) (ports.ExecResult, error) {
	full := make([]string, 0, len(args)+3)
	full = append(full, "exec", s.container, executable)
	full = append(full, args...)

	return s.host.ExecFile(ctx, string(s.runtime), full, opts)
}

// ExecArgs builds the runtime arguments for an interactive exec:
// exec -i [-w cwd] [-e KEY=VALUE ...] container executable args...
// Environment flags are emitted in key order.
func ExecArgs(container, executable string, args []string, opts ports.SpawnOptions) []string {
	out := []string{"exec", "-i"}
	if opts.Cwd != "" {
		out = append(out, "-w", opts.Cwd)
	}

	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, "-e", k+"="+opts.Env[k])
	}

	out = append(out, container, executable)

	return append(out, args...)
}
