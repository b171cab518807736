package claude

import (
	"syscall"

	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/permissions"
)

// RespondToPermission answers a pending permission prompt. It reports
// false when the session or request is unknown, the response could not be
// encoded or the write failed; the request stays pending in the last two
// cases.
func (a *Adapter) RespondToPermission(sessionID, requestID string, allowed bool) bool {
	var completed *execKey

	ok := a.respond(sessionID, requestID,
		func(req messages.ControlRequest) (string, error) {
			if allowed {
				return messages.BuildAllowResponse(requestID, req.Input)
			}

			return messages.BuildDenyResponse(requestID)
		},
		func(s *session, req messages.ControlRequest) {
			if allowed || !permissions.IsStreamingExecTool(req.ToolName) {
				return
			}
			if _, active := s.activeExec[req.ToolUseID]; active {
				delete(s.activeExec, req.ToolUseID)
				completed = &execKey{session: s.id, toolUseID: req.ToolUseID}
			}
		},
	)

	if completed != nil {
		a.exec.Cleanup(*completed)
		a.bus.emit(ExecCompleteEvent{SessionID: completed.session, ToolUseID: completed.toolUseID})
	}

	return ok
}

// RespondToUserQuestion answers a pending AskUserQuestion request. Nil
// answers deny it.
func (a *Adapter) RespondToUserQuestion(sessionID, requestID string, answers messages.UserQuestionAnswers) bool {
	return a.respond(sessionID, requestID,
		func(req messages.ControlRequest) (string, error) {
			if answers == nil {
				return messages.BuildDenyResponse(requestID)
			}

			return messages.BuildUserQuestionResponse(requestID, req.Input, answers)
		},
		nil,
	)
}

// RespondToPlan answers a pending ExitPlanMode request. A nil or denied
// response denies the plan and terminates the session.
func (a *Adapter) RespondToPlan(sessionID, requestID string, resp *messages.PlanResponse) bool {
	denied := resp == nil || resp.Action == messages.PlanDenied

	return a.respond(sessionID, requestID,
		func(req messages.ControlRequest) (string, error) {
			if denied {
				return messages.BuildDenyResponse(requestID)
			}

			return messages.BuildPlanResponse(requestID, req.Input, *resp)
		},
		func(s *session, _ messages.ControlRequest) {
			if !denied {
				return
			}
			s.log.Info().Str("request_id", requestID).Msg("plan denied, terminating process")
			s.handle.Kill(syscall.SIGTERM)
		},
	)
}

// respond writes the line built for a pending request under the session
// lock and drops the request once written. after, when set, runs under
// the lock after a successful write. A build failure is emitted as an
// error event once the lock is released.
func (a *Adapter) respond(
	sessionID, requestID string,
	build func(messages.ControlRequest) (string, error),
	after func(*session, messages.ControlRequest),
) bool {
	s := a.session(sessionID)
	if s == nil {
		a.log.Warn().Str("session", sessionID).Msg("cannot respond: session not found")

		return false
	}

	s.mu.Lock()

	req, ok := s.pending[requestID]
	if !ok {
		s.mu.Unlock()
		s.log.Warn().Str("request_id", requestID).Msg("no pending request")

		return false
	}

	line, err := build(req)
	if err != nil {
		s.mu.Unlock()
		err = s.requestError(req, err)
		s.log.Error().Err(err).Str("request_id", requestID).Msg("failed to encode response")
		a.bus.emit(ErrorEvent{SessionID: s.id, Err: err})

		return false
	}

	if !s.write(line) {
		s.mu.Unlock()
		s.log.Warn().Str("request_id", requestID).Msg("failed to write response")

		return false
	}
	delete(s.pending, requestID)
	if after != nil {
		after(s, req)
	}
	s.mu.Unlock()

	return true
}
