package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
)

// prompter asks questions on out and reads answers line by line from in.
// Once in is exhausted every question gets its negative answer.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	eof bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine() (string, bool) {
	if p.eof {
		return "", false
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		p.eof = true
		if line == "" {
			return "", false
		}
	}

	return strings.TrimSpace(line), true
}

// confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) confirm(question string) bool {
	printf(p.out, "%s [y/N] ", question)

	line, ok := p.readLine()
	if !ok {
		return false
	}

	return parseYes(line)
}

// choose asks one AskUserQuestion question. It reports false when the
// question is declined with an empty answer or input ended.
func (p *prompter) choose(q messages.UserQuestion) (any, bool) {
	if q.Header != "" {
		printf(p.out, "[%s] ", q.Header)
	}
	printf(p.out, "%s\n", q.Question)
	for i, opt := range q.Options {
		if opt.Description != "" {
			printf(p.out, "  %d) %s - %s\n", i+1, opt.Label, opt.Description)
		} else {
			printf(p.out, "  %d) %s\n", i+1, opt.Label)
		}
	}
	if q.MultiSelect {
		printf(p.out, "choices (comma separated): ")
	} else {
		printf(p.out, "choice: ")
	}

	line, ok := p.readLine()
	if !ok {
		return nil, false
	}

	return parseChoice(line, q)
}

// planVerdict asks whether to approve a plan.
func (p *prompter) planVerdict() *messages.PlanResponse {
	printf(p.out, "Approve plan? [y]es / [n]o / or type requested changes: ")

	line, ok := p.readLine()
	if !ok {
		return &messages.PlanResponse{Action: messages.PlanDenied}
	}

	return parsePlanVerdict(line)
}

func parseYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// parseChoice maps numbers or labels to option labels. Free text that
// matches no option is passed through as the answer.
func parseChoice(line string, q messages.UserQuestion) (any, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	if !q.MultiSelect {
		return resolveOption(line, q.Options), true
	}

	var labels []string
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, resolveOption(part, q.Options))
		}
	}
	if len(labels) == 0 {
		return nil, false
	}

	return labels, true
}

func resolveOption(s string, opts []messages.UserQuestionOption) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1].Label
	}
	for _, opt := range opts {
		if strings.EqualFold(opt.Label, s) {
			return opt.Label
		}
	}

	return s
}

func parsePlanVerdict(line string) *messages.PlanResponse {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "y", "yes":
		return &messages.PlanResponse{Action: messages.PlanApproved}
	case "", "n", "no":
		return &messages.PlanResponse{Action: messages.PlanDenied}
	default:
		return &messages.PlanResponse{Action: messages.PlanChangesRequested, UserNote: line}
	}
}
