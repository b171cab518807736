package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

const probeTimeout = 5 * time.Second

// DetectRuntime returns the first usable runtime for preference. An explicit
// preference must be available; RuntimeAuto tries docker then podman.
func DetectRuntime(
	ctx context.Context,
	host ports.ProcessSpawner,
	preference Runtime,
) (Runtime, error) {
	if preference == "" {
		preference = RuntimeAuto
	}

	if preference != RuntimeAuto {
		if !isAvailable(ctx, host, preference) {
			return "", clauderrs.NewSandboxError(
				clauderrs.ErrCodeRuntimeUnavailable,
				fmt.Sprintf("%s is not available, please install %s first", preference, preference),
				nil,
				string(preference),
			)
		}

		return preference, nil
	}

	for _, rt := range []Runtime{RuntimeDocker, RuntimePodman} {
		if isAvailable(ctx, host, rt) {
			return rt, nil
		}
	}

	return "", clauderrs.NewSandboxError(
		clauderrs.ErrCodeRuntimeUnavailable,
		"no container runtime found, please install docker or podman",
		nil,
		string(RuntimeAuto),
	)
}

func isAvailable(ctx context.Context, host ports.ProcessSpawner, rt Runtime) bool {
	_, err := host.ExecFile(ctx, string(rt), []string{"--version"}, ports.ExecOptions{Timeout: probeTimeout})

	return err == nil
}

// ContainerRunning reports whether the named container exists and is running.
func ContainerRunning(
	ctx context.Context,
	host ports.ProcessSpawner,
	rt Runtime,
	container string,
) bool {
	res, err := host.ExecFile(
		ctx,
		string(rt),
		[]string{"inspect", "--format", "{{.State.Running}}", container},
		ports.ExecOptions{Timeout: probeTimeout},
	)
	if err != nil {
		return false
	}

	return strings.TrimSpace(res.Stdout) == "true"
}

// Resolve picks the spawner for a session: a sandboxed spawner when container
// is set and running under the detected runtime, host otherwise.
func Resolve(
	ctx context.Context,
	host ports.ProcessSpawner,
	preference Runtime,
	container string,
) (ports.ProcessSpawner, error) {
	if container == "" {
		return host, nil
	}

	rt, err := DetectRuntime(ctx, host, preference)
	if err != nil {
		return nil, err
	}
	if !ContainerRunning(ctx, host, rt, container) {
		return host, nil
	}

	sb, err := NewSpawner(host, rt, container)
	if err != nil {
		return nil, err
	}

	return sb, nil
}

// RequireContainer is like Resolve but fails when the container is not running.
func RequireContainer(
	ctx context.Context,
	host ports.ProcessSpawner,
	preference Runtime,
	container string,
) (*Spawner, error) {
	rt, err := DetectRuntime(ctx, host, preference)
	if err != nil {
		return nil, err
	}
	if !ContainerRunning(ctx, host, rt, container) {
		return nil, clauderrs.NewSandboxError(
			clauderrs.ErrCodeContainerMissing,
			fmt.Sprintf("container %q is not running", container),
			nil,
			string(rt),
		)
	}

	return NewSpawner(host, rt, container)
}
