package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/ndjson"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/claude/permissions"
	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/claude/throttle"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// SessionIDPrefix prefixes every session id.
const SessionIDPrefix = "claude-code-"

// execKey identifies one streaming tool execution.
type execKey struct {
	session   string
	toolUseID string
}

// Adapter supervises Claude CLI sessions and translates their output
// into events.
type Adapter struct {
	opts  options.AdapterOptions
	log   zerolog.Logger
	perms *permissions.Service
	bus   *bus
	exec  *throttle.Buffer[execKey]

	mu       sync.Mutex
	sessions map[string]*session
	counter  uint64
}

// NewAdapter creates an adapter. opts.Spawner is required.
func NewAdapter(opts options.AdapterOptions) (*Adapter, error) {
	if opts.Spawner == nil {
		return nil, clauderrs.NewValidationError(
			clauderrs.ErrCodeMissingField,
			"process spawner is required",
			nil,
			"spawner",
			nil,
		)
	}

	opts = opts.WithDefaults()
	log := opts.Logger.With().Str("component", "claude").Logger()

	a := &Adapter{
		opts:     opts,
		log:      log,
		perms:    permissions.NewService(&permissions.Config{AdditionalAutoApproved: opts.AdditionalAutoApprovedTools}),
		bus:      newBus(&log),
		sessions: make(map[string]*session),
	}
	a.exec = throttle.New(opts.ExecOutputThrottle, opts.Clock, a.emitExecOutput)

	return a, nil
}

// On registers fn for events of type t and returns a function that
// removes it.
func (a *Adapter) On(t EventType, fn func(Event)) (unsubscribe func()) {
	return a.bus.on(t, fn)
}

// Subscribe registers a handler for one concrete event type such as
// ExitEvent.
func Subscribe[E EventPayload](a *Adapter, fn func(E)) (unsubscribe func()) {
	var zero E

	return a.On(zero.Type(), func(e Event) {
		if v, ok := e.(E); ok {
			fn(v)
		}
	})
}

// AutoApprovedTools returns the effective auto-approved tool names.
func (a *Adapter) AutoApprovedTools() []string {
	return a.perms.AutoApproved().Names()
}

// Start spawns a session for cfg and writes its first user turn. A spawn
// failure is returned and also emitted as an error event.
func (a *Adapter) Start(ctx context.Context, cfg options.RunnerConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.counter++
	seq := a.counter
	a.mu.Unlock()

	id := fmt.Sprintf("%s%d", SessionIDPrefix, seq)
	executable := cfg.ExecutablePath
	if executable == "" {
		executable = a.opts.Executable
	}
	args := options.BuildArgs(cfg, a.opts.Model)
	log := a.log.With().Str("session", id).Logger()

	log.Info().
		Str("executable", executable).
		Str("args", strings.Join(args, " ")).
		Str("cwd", cfg.Cwd).
		Msg("spawning claude process")

	handle, err := a.opts.Spawner.Spawn(ctx, executable, args, ports.SpawnOptions{
		Cwd: cfg.Cwd,
		Env: options.SpawnEnv(cfg),
	})
	if err != nil {
		log.Error().Err(err).Msg("spawn failed")
		a.bus.emit(ErrorEvent{SessionID: id, Err: err})

		return "", err
	}

	s := newSession(id, seq, handle, log)
	s.framer = ndjson.NewFramer(
		func(raw json.RawMessage) { a.handleMessage(s, raw) },
		func(line string) {
			err := clauderrs.NewProtocolError(clauderrs.ErrCodeInvalidMessage, "non-JSON stdout line", nil)
			s.log.Debug().
				Err(err).
				Str("code", string(err.Code())).
				Str("line", truncate(line, 100)).
				Msg("skipped stdout line")
		},
	)

	a.mu.Lock()
	a.sessions[id] = s
	a.mu.Unlock()

	a.watch(s)

	first, err := cfg.UserMessage()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode initial prompt")
		a.bus.emit(ErrorEvent{SessionID: id, Err: err})

		return id, nil
	}
	s.log.Debug().Str("message", truncate(first, 200)).Msg("sending user message")
	if !s.write(first) {
		err := clauderrs.NewTransportError(clauderrs.ErrCodeWriteFailed, "failed to write initial prompt", nil)
		s.log.Warn().Err(err).Msg("stdin write failed")
		a.bus.emit(ErrorEvent{SessionID: id, Err: err})
	}

	return id, nil
}

// watch wires the handle's streams into the session and starts delivery.
func (a *Adapter) watch(s *session) {
	s.handle.OnStdout(func(chunk []byte) {
		s.log.Debug().Int("bytes", len(chunk)).Msg("stdout chunk")
		s.framer.Process(chunk)
	})

	s.handle.OnStderr(func(chunk []byte) {
		text := strings.TrimSpace(string(chunk))
		if text == "" {
			return
		}
		s.log.Debug().Str("stderr", truncate(text, 200)).Msg("stderr")

		lower := strings.ToLower(text)
		if strings.Contains(lower, "error") || strings.Contains(lower, "fatal") {
			err := clauderrs.NewProcessError(clauderrs.ErrCodeProcessStderr, text, nil, -1, text).
				WithSessionID(s.id)
			a.bus.emit(ErrorEvent{SessionID: s.id, Err: err})
		}
	})

	s.handle.OnError(func(err error) {
		s.log.Error().Err(err).Msg("process error")
		a.bus.emit(ErrorEvent{SessionID: s.id, Err: err})
		a.teardown(s)
	})

	s.handle.OnExit(func(code *int, signal string) {
		s.framer.Flush()

		ev := s.log.Info()
		if code != nil {
			ev = ev.Int("code", *code)
		}
		if signal != "" {
			ev = ev.Str("signal", signal)
		}
		ev.Msg("process exited")

		a.bus.emit(ExitEvent{SessionID: s.id, Code: code, Signal: signal})
		a.teardown(s)
	})

	s.handle.Watch()
}

// SendMessage writes a user turn to a running session.
func (a *Adapter) SendMessage(sessionID, text string) bool {
	return a.SendContent(sessionID, []messages.ContentBlock{messages.TextBlock(text)})
}

// SendContent writes a user turn made of content blocks.
func (a *Adapter) SendContent(sessionID string, blocks []messages.ContentBlock) bool {
	s := a.session(sessionID)
	if s == nil {
		a.log.Warn().Str("session", sessionID).Msg("cannot send message: session not found")

		return false
	}

	line, err := messages.BuildUserContentMessage(blocks)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode user message")
		a.bus.emit(ErrorEvent{SessionID: s.id, Err: err})

		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(line)
}

// Abort sends SIGTERM and escalates to SIGKILL when the process is still
// running after the force-kill timeout. Repeated calls are no-ops.
func (a *Adapter) Abort(sessionID string) bool {
	s := a.session(sessionID)
	if s == nil {
		a.log.Warn().Str("session", sessionID).Msg("cannot abort: session not found")

		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.killTimer != nil {
		return true
	}

	s.log.Info().Msg("aborting process")
	s.handle.Kill(syscall.SIGTERM)
	s.killTimer = a.opts.Clock.AfterFunc(a.opts.ForceKillTimeout, func() {
		if a.session(sessionID) != s {
			return
		}
		err := clauderrs.NewProcessError(
			clauderrs.ErrCodeProcessSignal,
			"process ignored SIGTERM, sent SIGKILL",
			nil,
			-1,
			"",
		).WithSessionID(s.id)
		s.log.Warn().Err(err).Dur("timeout", a.opts.ForceKillTimeout).Msg("escalating abort")
		s.handle.Kill(syscall.SIGKILL)
		a.bus.emit(ErrorEvent{SessionID: s.id, Err: err})
	})

	return true
}

// CleanupAll terminates every session and flushes buffered exec output.
func (a *Adapter) CleanupAll() {
	a.mu.Lock()
	sessions := make([]*session, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.sessions = make(map[string]*session)
	a.mu.Unlock()

	slices.SortFunc(sessions, bySeq)
	for _, s := range sessions {
		s.log.Info().Msg("cleaning up process")
		s.handle.Kill(syscall.SIGTERM)
		s.stopKillTimer()
	}

	a.exec.CleanupAll()
}

// SessionInfo is a snapshot of one session.
type SessionInfo struct {
	ID               string
	PID              int
	PendingRequests  []string
	ActiveExecTools  []string
	LastPlanFilePath string
	Aborting         bool
}

// Sessions returns a snapshot of every live session in start order.
func (a *Adapter) Sessions() []SessionInfo {
	a.mu.Lock()
	sessions := make([]*session, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.mu.Unlock()

	slices.SortFunc(sessions, bySeq)

	infos := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = s.info()
	}

	return infos
}

// PendingRequest returns the unanswered control request with requestID.
func (a *Adapter) PendingRequest(sessionID, requestID string) (messages.ControlRequest, bool) {
	s := a.session(sessionID)
	if s == nil {
		return messages.ControlRequest{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[requestID]

	return req, ok
}

func (a *Adapter) session(id string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.sessions[id]
}

// teardown removes s and discards its buffered exec output.
func (a *Adapter) teardown(s *session) {
	a.mu.Lock()
	if a.sessions[s.id] != s {
		a.mu.Unlock()

		return
	}
	delete(a.sessions, s.id)
	a.mu.Unlock()

	s.stopKillTimer()
	a.exec.CleanupWhere(func(k execKey) bool { return k.session == s.id })
	s.log.Debug().Msg("session removed")
}

func (a *Adapter) emitExecOutput(key execKey, content string, stream throttle.Stream) {
	a.bus.emit(ExecOutputEvent{
		SessionID: key.session,
		ToolUseID: key.toolUseID,
		Chunk:     content,
		Stream:    stream,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
