package claude

import (
	"context"
	"strings"

	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/claude/version"
)

// AvailabilityResult describes the installed CLI.
type AvailabilityResult struct {
	Available bool
	// Version is the trimmed --version output.
	Version string
	// Err is the probe failure when Available is false.
	Err error
	// Compatibility is set when Available is true.
	Compatibility *version.Compatibility
}

// CheckAvailability probes the CLI's --version within the availability
// timeout. Failures produce a negative result, never an error.
func (a *Adapter) CheckAvailability(ctx context.Context) AvailabilityResult {
	res, err := a.opts.Spawner.ExecFile(ctx, a.opts.Executable, []string{"--version"}, ports.ExecOptions{
		Timeout: a.opts.AvailabilityTimeout,
	})
	if err != nil {
		a.log.Info().Err(err).Msg("claude CLI not available")

		return AvailabilityResult{Err: err}
	}

	installed := strings.TrimSpace(res.Stdout)
	compat := version.Check(installed)
	a.log.Info().Str("version", installed).Msg("claude CLI available")

	if !compat.IsCompatible && compat.Warning != "" {
		a.log.Warn().Str("supported", version.Supported).Msg(compat.Warning)
	}

	return AvailabilityResult{
		Available:     true,
		Version:       installed,
		Compatibility: &compat,
	}
}
