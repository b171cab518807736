package claude

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/ndjson"
	"github.com/yuri-xyz/claudebot/pkg/claude/clock"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/permissions"
	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/claude/throttle"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// session is one supervised CLI process. The framer is only touched from
// the handle's stdout goroutine and, after it finished, the exit listener.
type session struct {
	id     string
	seq    uint64
	handle ports.ProcessHandle
	framer *ndjson.Framer
	log    zerolog.Logger

	mu           sync.Mutex
	pending      map[string]messages.ControlRequest
	activeExec   map[string]struct{}
	lastPlanPath string
	killTimer    clock.Timer
}

func newSession(id string, seq uint64, handle ports.ProcessHandle, log zerolog.Logger) *session {
	return &session{
		id:         id,
		seq:        seq,
		handle:     handle,
		log:        log,
		pending:    make(map[string]messages.ControlRequest),
		activeExec: make(map[string]struct{}),
	}
}

// write sends one NDJSON line. Callers hold s.mu so lines never interleave.
func (s *session) write(line string) bool {
	return s.handle.WriteStdin([]byte(line + "\n"))
}

func (s *session) stopKillTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.killTimer != nil {
		s.killTimer.Stop()
	}
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]string, 0, len(s.pending))
	for id := range s.pending {
		pending = append(pending, id)
	}
	active := make([]string, 0, len(s.activeExec))
	for id := range s.activeExec {
		active = append(active, id)
	}
	slices.Sort(pending)
	slices.Sort(active)

	return SessionInfo{
		ID:               s.id,
		PID:              s.handle.PID(),
		PendingRequests:  pending,
		ActiveExecTools:  active,
		LastPlanFilePath: s.lastPlanPath,
		Aborting:         s.killTimer != nil,
	}
}

func bySeq(a, b *session) int {
	return cmp.Compare(a.seq, b.seq)
}

// handleMessage classifies one decoded stdout value.
func (a *Adapter) handleMessage(s *session, raw json.RawMessage) {
	if a.session(s.id) != s {
		return
	}

	kind := messages.Classify(raw)
	s.log.Debug().Str("type", messages.MessageType(raw)).Msg("stdout message")

	if req, ok := kind.(*messages.ControlRequest); ok {
		a.handleControlRequest(s, *req)

		return
	}

	a.handleExecMarker(s, kind)
	a.bus.emit(MessageEvent{SessionID: s.id, Message: raw, Kind: kind})
}

func (a *Adapter) handleControlRequest(s *session, req messages.ControlRequest) {
	d := a.perms.Decide(req)
	s.log.Info().
		Str("tool", req.ToolName).
		Str("request_id", req.RequestID).
		Str("route", d.Route.String()).
		Msg("control request")

	var events []Event

	s.mu.Lock()
	if d.PlanFilePath != "" {
		s.lastPlanPath = d.PlanFilePath
	}
	if d.StreamingExec {
		s.activeExec[req.ToolUseID] = struct{}{}
		events = append(events, ExecOutputEvent{
			SessionID: s.id,
			ToolUseID: req.ToolUseID,
			Stream:    throttle.StreamStart,
		})
	}
	if d.Route.Pending() {
		s.pending[req.RequestID] = req
	}

	switch d.Route {
	case permissions.RouteUserQuestion:
		events = append(events, UserQuestionEvent{
			SessionID: s.id,
			RequestID: req.RequestID,
			ToolUseID: req.ToolUseID,
			Questions: messages.ExtractQuestions(req.Input),
		})
	case permissions.RouteEnterPlanMode:
		events = append(events, EnterPlanModeEvent{SessionID: s.id})
		if err := s.autoAllow(req); err != nil {
			events = append(events, ErrorEvent{SessionID: s.id, Err: err})
		}
	case permissions.RouteAutoApprove:
		if err := s.autoAllow(req); err != nil {
			events = append(events, ErrorEvent{SessionID: s.id, Err: err})
		}
	case permissions.RouteExitPlanMode:
		events = append(events, s.planRequest(req))
	case permissions.RoutePrompt:
		events = append(events, PermissionRequestEvent{
			SessionID:      s.id,
			RequestID:      req.RequestID,
			ToolName:       req.ToolName,
			ToolInput:      req.Input,
			ToolUseID:      req.ToolUseID,
			DecisionReason: req.DecisionReason,
			Suggestions:    req.Suggestions,
		})
	}
	s.mu.Unlock()

	for _, e := range events {
		a.bus.emit(e)
	}
}

// autoAllow answers req immediately. Callers hold s.mu. Only an encode
// failure is returned; a failed write is logged.
func (s *session) autoAllow(req messages.ControlRequest) error {
	line, err := messages.BuildAllowResponse(req.RequestID, req.Input)
	if err != nil {
		err = s.requestError(req, err)
		s.log.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to encode auto-approval")

		return err
	}
	if !s.write(line) {
		s.log.Warn().Str("request_id", req.RequestID).Msg("failed to write auto-approval")

		return nil
	}
	s.log.Debug().Str("tool", req.ToolName).Msg("auto-approved")

	return nil
}

// requestError records the session and request on a protocol error.
func (s *session) requestError(req messages.ControlRequest, err error) error {
	var pe *clauderrs.ProtocolError
	if errors.As(err, &pe) {
		_ = pe.WithRequest(s.id, req.RequestID, req.ToolName)
	}

	return err
}

// planRequest builds the plan review event. Callers hold s.mu.
func (s *session) planRequest(req messages.ControlRequest) PlanRequestEvent {
	plan := messages.ExtractPlanModeInput(req.Input)
	path := plan.PlanFilePath
	if path == "" {
		path = s.lastPlanPath
	}

	return PlanRequestEvent{
		SessionID:          s.id,
		RequestID:          req.RequestID,
		ToolUseID:          req.ToolUseID,
		PlanFilePath:       path,
		PlanContent:        plan.Plan,
		LaunchSwarm:        plan.LaunchSwarm,
		TeammateCount:      plan.TeammateCount,
		AllowedPrompts:     plan.AllowedPrompts,
		PushToRemote:       plan.PushToRemote,
		RemoteSessionID:    plan.RemoteSessionID,
		RemoteSessionURL:   plan.RemoteSessionURL,
		RemoteSessionTitle: plan.RemoteSessionTitle,
	}
}

// handleExecMarker tracks streaming tool executions.
func (a *Adapter) handleExecMarker(s *session, kind messages.Inbound) {
	switch m := kind.(type) {
	case messages.ToolUseStart:
		if !permissions.IsStreamingExecTool(m.Name) {
			return
		}
		s.mu.Lock()
		s.activeExec[m.ID] = struct{}{}
		s.mu.Unlock()

		a.bus.emit(ExecOutputEvent{SessionID: s.id, ToolUseID: m.ID, Stream: throttle.StreamStart})

	case messages.ToolResult:
		if !s.finishExec(m.ToolUseID) {
			return
		}
		key := execKey{session: s.id, toolUseID: m.ToolUseID}
		if m.Content != "" {
			stream := throttle.StreamStdout
			if m.IsError {
				stream = throttle.StreamStderr
			}
			a.exec.Buffer(key, m.Content, stream)
		}
		code := 0
		if m.IsError {
			code = 1
		}
		a.completeExec(key, &code)

	case messages.ResultMarker:
		if !s.finishExec(m.ToolUseID) {
			return
		}
		code := 0
		a.completeExec(execKey{session: s.id, toolUseID: m.ToolUseID}, &code)
	}
}

// finishExec removes toolUseID from the active set and reports whether
// it was active.
func (s *session) finishExec(toolUseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activeExec[toolUseID]; !ok {
		return false
	}
	delete(s.activeExec, toolUseID)

	return true
}

func (a *Adapter) completeExec(key execKey, code *int) {
	a.exec.Flush(key)
	a.exec.Cleanup(key)
	a.bus.emit(ExecCompleteEvent{SessionID: key.session, ToolUseID: key.toolUseID, ExitCode: code})
}
