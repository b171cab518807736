package main

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// Run starts a session, prints its output and answers its requests until
// the child exits.
func (c *RunCmd) Run(e *env) error {
	a, err := e.adapter()
	if err != nil {
		return err
	}
	defer a.CleanupAll()

	cwd := c.Cwd
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return err
		}
	}

	cfg := e.cfg.RunnerConfig(strings.Join(c.Prompt, " "), cwd)
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Resume != "" {
		cfg.ResumeSessionID = c.Resume
	}
	if c.PermissionMode != "" {
		cfg.PermissionMode = options.PermissionMode(c.PermissionMode)
	}
	if c.MaxTurns > 0 {
		turns := c.MaxTurns
		cfg.MaxTurns = &turns
	}

	events := newEventQueue()
	unsubscribe := subscribeAll(a, events.push)
	defer unsubscribe()

	id, err := a.Start(e.ctx, cfg)
	if err != nil {
		return err
	}

	r := &runner{
		env:      e,
		adapter:  a,
		id:       id,
		allowAll: c.AllowAll,
		quiet:    c.Quiet,
		prompt:   newPrompter(e.stdin, e.stderr),
	}

	return r.loop(events)
}

// eventQueue hands events to the main loop. push never blocks, since
// responding to a request can emit events on the main goroutine itself.
type eventQueue struct {
	mu    sync.Mutex
	items []claude.Event
	ready chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev claude.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []claude.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil

	return items
}

func subscribeAll(a *claude.Adapter, forward func(claude.Event)) func() {
	var unsubs []func()
	for _, t := range []claude.EventType{
		claude.EventMessage,
		claude.EventPermissionRequest,
		claude.EventUserQuestion,
		claude.EventPlanRequest,
		claude.EventEnterPlanMode,
		claude.EventExecOutput,
		claude.EventExecComplete,
		claude.EventError,
		claude.EventExit,
	} {
		unsubs = append(unsubs, a.On(t, forward))
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// runner handles the events of one session on the main goroutine.
type runner struct {
	*env
	adapter  *claude.Adapter
	id       string
	allowAll bool
	quiet    bool
	prompt   *prompter

	// finished is set once a result arrived and the child was asked to stop.
	finished bool
	failed   bool
}

func (r *runner) loop(events *eventQueue) error {
	done := r.ctx.Done()
	for {
		select {
		case <-done:
			done = nil
			r.log.Info().Str("session", r.id).Msg("interrupted, aborting session")
			r.adapter.Abort(r.id)
		case <-events.ready:
			for _, ev := range events.drain() {
				if ev.Session() != r.id {
					continue
				}
				if exit, ok := ev.(claude.ExitEvent); ok {
					return r.exitStatus(exit)
				}
				r.handle(ev)
			}
		}
	}
}

func (r *runner) handle(ev claude.Event) {
	switch ev := ev.(type) {
	case claude.MessageEvent:
		r.message(ev)
	case claude.PermissionRequestEvent:
		r.permission(ev)
	case claude.UserQuestionEvent:
		r.questions(ev)
	case claude.PlanRequestEvent:
		r.plan(ev)
	case claude.EnterPlanModeEvent:
		printf(r.stderr, "[plan mode]\n")
	case claude.ExecOutputEvent:
		if !r.quiet {
			printf(r.stderr, "%s", ev.Chunk)
		}
	case claude.ExecCompleteEvent:
		if !r.quiet && ev.ExitCode != nil && *ev.ExitCode != 0 {
			printf(r.stderr, "[exit %d]\n", *ev.ExitCode)
		}
	case claude.ErrorEvent:
		r.log.Error().Err(ev.Err).Str("session", r.id).Msg("session error")
		if requestID, ok := unanswerable(ev.Err); ok {
			r.log.Warn().Str("request_id", requestID).Msg("denying request whose answer could not be encoded")
			r.adapter.RespondToPermission(r.id, requestID, false)
		}
	}
}

// unanswerable reports the control request an encode failure left pending.
func unanswerable(err error) (string, bool) {
	if !clauderrs.IsProtocolError(err) {
		return "", false
	}

	var pe *clauderrs.ProtocolError
	if !errors.As(err, &pe) || pe.Code() != clauderrs.ErrCodeEncodeFailed || pe.RequestID() == "" {
		return "", false
	}

	return pe.RequestID(), true
}

func (r *runner) message(ev claude.MessageEvent) {
	if text, ok := messages.AssistantText(ev.Message); ok && text != "" {
		printf(r.stdout, "%s\n", text)

		return
	}

	res, ok := messages.ParseResult(ev.Message)
	if !ok {
		return
	}

	duration := time.Duration(res.DurationMS) * time.Millisecond
	printf(r.stderr, "[%s] turns=%d cost=$%.4f duration=%s\n", res.Subtype, res.NumTurns, res.TotalCostUSD, duration)

	r.failed = res.IsError
	r.finished = true
	r.adapter.Abort(r.id)
}

func (r *runner) permission(ev claude.PermissionRequestEvent) {
	if r.allowAll {
		r.adapter.RespondToPermission(r.id, ev.RequestID, true)

		return
	}

	summary := truncate(strings.TrimSpace(string(ev.ToolInput)), 200)
	if ev.DecisionReason != "" {
		summary += "\n  reason: " + ev.DecisionReason
	}
	allowed := r.prompt.confirm("Allow " + ev.ToolName + " " + summary + "?")
	r.adapter.RespondToPermission(r.id, ev.RequestID, allowed)
}

func (r *runner) questions(ev claude.UserQuestionEvent) {
	answers := make(messages.UserQuestionAnswers, len(ev.Questions))
	for _, q := range ev.Questions {
		answer, ok := r.prompt.choose(q)
		if !ok {
			r.adapter.RespondToUserQuestion(r.id, ev.RequestID, nil)

			return
		}
		answers[q.Question] = answer
	}

	r.adapter.RespondToUserQuestion(r.id, ev.RequestID, answers)
}

func (r *runner) plan(ev claude.PlanRequestEvent) {
	if ev.PlanContent != "" {
		printf(r.stdout, "%s\n", ev.PlanContent)
	} else if ev.PlanFilePath != "" {
		printf(r.stdout, "plan: %s\n", ev.PlanFilePath)
	}

	resp := &messages.PlanResponse{Action: messages.PlanApproved}
	if !r.allowAll {
		resp = r.prompt.planVerdict()
	}

	r.adapter.RespondToPlan(r.id, ev.RequestID, resp)
}

// exitStatus maps the child's exit to the command's status. A session
// stopped after its result exits with the result's outcome.
func (r *runner) exitStatus(ev claude.ExitEvent) error {
	switch {
	case r.finished && r.failed:
		return exitCode(1)
	case r.finished:
		return nil
	case ev.Code == nil:
		r.log.Warn().Str("session", r.id).Str("signal", ev.Signal).Msg("claude terminated by signal")

		return exitCode(1)
	case *ev.Code != 0:
		return exitCode(*ev.Code)
	default:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
