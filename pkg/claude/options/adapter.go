package options

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/clock"
	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
)

// Defaults applied by AdapterOptions.WithDefaults.
const (
	DefaultExecutable          = "claude"
	DefaultModel               = "sonnet"
	DefaultExecOutputThrottle  = time.Second
	DefaultForceKillTimeout    = 5 * time.Second
	DefaultAvailabilityTimeout = 5 * time.Second
)

// AdapterOptions configures an adapter instance.
type AdapterOptions struct {
	// Spawner starts CLI processes. Required.
	Spawner ports.ProcessSpawner

	// ExecOutputThrottle is the minimum gap between exec_output events
	// for one tool call.
	ExecOutputThrottle time.Duration

	// AdditionalAutoApprovedTools extends the built-in auto-approved set.
	AdditionalAutoApprovedTools []string

	// Executable is used when a RunnerConfig names none, and for
	// availability probes.
	Executable string

	// Model is passed as --model unless a RunnerConfig overrides it.
	Model string

	// Logger receives adapter logs. Nil disables logging.
	Logger *zerolog.Logger

	// Clock drives throttle and kill-escalation timers.
	Clock clock.Clock

	// ForceKillTimeout is the grace period between SIGTERM and SIGKILL.
	ForceKillTimeout time.Duration

	// AvailabilityTimeout bounds the --version probe.
	AvailabilityTimeout time.Duration
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o AdapterOptions) WithDefaults() AdapterOptions {
	if o.ExecOutputThrottle <= 0 {
		o.ExecOutputThrottle = DefaultExecOutputThrottle
	}
	if o.Executable == "" {
		o.Executable = DefaultExecutable
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.ForceKillTimeout <= 0 {
		o.ForceKillTimeout = DefaultForceKillTimeout
	}
	if o.AvailabilityTimeout <= 0 {
		o.AvailabilityTimeout = DefaultAvailabilityTimeout
	}

	return o
}
