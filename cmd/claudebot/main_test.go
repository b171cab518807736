package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/yuri-xyz/claudebot/internal/config"
	"github.com/yuri-xyz/claudebot/internal/logging"
	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/mcp"
	"github.com/yuri-xyz/claudebot/pkg/claude/messages"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

func parse(t *testing.T, args ...string) *CLI {
	t.Helper()

	var app CLI
	parser, err := kong.New(&app, kongVars())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}

	return &app
}

func TestRunCmdParse(t *testing.T) {
	app := parse(t, "run", "--allow-all", "-m", "opus", "--max-turns", "4", "fix", "the", "tests")

	if got := strings.Join(app.Run.Prompt, " "); got != "fix the tests" {
		t.Errorf("Prompt = %q", got)
	}
	if !app.Run.AllowAll || app.Run.Model != "opus" || app.Run.MaxTurns != 4 {
		t.Errorf("RunCmd = %+v", app.Run)
	}
}

func TestCheckCmdDefaults(t *testing.T) {
	app := parse(t, "check")

	if app.Check.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", app.Check.Timeout)
	}
	if app.Check.MCPConfig != "" {
		t.Errorf("MCPConfig = %q, want empty", app.Check.MCPConfig)
	}
}

func TestMCPCmdDefaults(t *testing.T) {
	app := parse(t, "mcp", "serve")
	if app.MCP.Serve.Events != mcp.DefaultEventCapacity {
		t.Errorf("Events = %d, want %d", app.MCP.Serve.Events, mcp.DefaultEventCapacity)
	}

	app = parse(t, "mcp", "config")
	if app.MCP.Config.Name != mcp.ServerName {
		t.Errorf("Name = %q, want %q", app.MCP.Config.Name, mcp.ServerName)
	}
	if filepath.Base(app.MCP.Config.Output) != ".mcp.json" {
		t.Errorf("Output = %q", app.MCP.Config.Output)
	}
}

func TestMCPConfigCmdKeepsOtherServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mcp.json")
	existing := `{"mcpServers":{"files":{"type":"stdio","command":"files-mcp"},"claudebot":{"command":"old"}}}`
	if err := os.WriteFile(path, []byte(existing), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &MCPConfigCmd{Output: path, Name: "claudebot", Args: []string{"--config", "bot.toml"}}
	if err := cmd.Run(&env{stdout: &out}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	servers, err := mcp.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("servers = %d, want 2", len(servers))
	}

	for _, s := range servers {
		if s.GetName() != "claudebot" {
			continue
		}
		stdio, ok := s.(*options.StdioServerConfig)
		if !ok {
			t.Fatalf("claudebot entry = %T, want stdio", s)
		}
		if want := []string{"--config", "bot.toml", "mcp", "serve"}; !slices.Equal(stdio.Args, want) {
			t.Errorf("Args = %v, want %v", stdio.Args, want)
		}
	}
	if !strings.Contains(out.String(), "2 servers") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServeEntry(t *testing.T) {
	entry := serveEntry("bot", "/usr/bin/claudebot", []string{"-c", "x.toml"})

	want := []string{"-c", "x.toml", "mcp", "serve"}
	if !slices.Equal(entry.Args, want) {
		t.Errorf("Args = %v, want %v", entry.Args, want)
	}
	if entry.Command != "/usr/bin/claudebot" || entry.Name != "bot" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestParseChoice(t *testing.T) {
	q := messages.UserQuestion{
		Question: "Which database?",
		Options:  []messages.UserQuestionOption{{Label: "Postgres"}, {Label: "SQLite"}},
	}
	multi := q
	multi.MultiSelect = true

	tests := []struct {
		name  string
		line  string
		q     messages.UserQuestion
		want  any
		given bool
	}{
		{"number", "2", q, "SQLite", true},
		{"label any case", "postgres", q, "Postgres", true},
		{"free text", "MySQL", q, "MySQL", true},
		{"out of range number", "7", q, "7", true},
		{"empty declines", "  ", q, nil, false},
		{"multi", "1, SQLite", multi, []string{"Postgres", "SQLite"}, true},
		{"multi empty parts", " , ", multi, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseChoice(tt.line, tt.q)
			if ok != tt.given {
				t.Fatalf("ok = %v, want %v", ok, tt.given)
			}
			switch want := tt.want.(type) {
			case []string:
				labels, _ := got.([]string)
				if !slices.Equal(labels, want) {
					t.Errorf("got %v, want %v", got, want)
				}
			default:
				if got != tt.want {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParsePlanVerdict(t *testing.T) {
	tests := []struct {
		line string
		want messages.PlanAction
		note string
	}{
		{"y", messages.PlanApproved, ""},
		{"YES", messages.PlanApproved, ""},
		{"", messages.PlanDenied, ""},
		{"no", messages.PlanDenied, ""},
		{"split step 2", messages.PlanChangesRequested, "split step 2"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := parsePlanVerdict(tt.line)
			if got.Action != tt.want || got.UserNote != tt.note {
				t.Errorf("parsePlanVerdict(%q) = %+v", tt.line, got)
			}
		})
	}
}

func TestPrompterStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("yes\n"), &out)

	if !p.confirm("Allow Bash?") {
		t.Error("first confirm = false, want true")
	}
	if p.confirm("Allow Write?") {
		t.Error("confirm after EOF = true, want false")
	}
	if got := p.planVerdict(); got.Action != messages.PlanDenied {
		t.Errorf("planVerdict after EOF = %v, want denied", got.Action)
	}
	if !strings.Contains(out.String(), "Allow Write? [y/N]") {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestExitStatus(t *testing.T) {
	zero, two := 0, 2

	tests := []struct {
		name     string
		finished bool
		failed   bool
		exit     claude.ExitEvent
		want     error
	}{
		{"clean exit", false, false, claude.ExitEvent{Code: &zero}, nil},
		{"child failure", false, false, claude.ExitEvent{Code: &two}, exitCode(2)},
		{"signal", false, false, claude.ExitEvent{Signal: "SIGKILL"}, exitCode(1)},
		{"stopped after result", true, false, claude.ExitEvent{Signal: "SIGTERM"}, nil},
		{"stopped after error result", true, true, claude.ExitEvent{Signal: "SIGTERM"}, exitCode(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &runner{
				env:      &env{log: logging.ConfigureTests()},
				finished: tt.finished,
				failed:   tt.failed,
			}
			if got := r.exitStatus(tt.exit); got != tt.want {
				t.Errorf("exitStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnanswerable(t *testing.T) {
	_, encodeErr := messages.BuildAllowResponse("req_1", []byte(`{bad`))

	tests := []struct {
		name string
		err  error
		want string
		ok   bool
	}{
		{"encode failure", encodeErr, "req_1", true},
		{"wrapped", fmt.Errorf("respond: %w", encodeErr), "req_1", true},
		{"no request", clauderrs.NewProtocolError(clauderrs.ErrCodeEncodeFailed, "encode user", nil), "", false},
		{"invalid message", clauderrs.NewProtocolError(clauderrs.ErrCodeInvalidMessage, "bad line", nil), "", false},
		{"transport", clauderrs.NewTransportError(clauderrs.ErrCodeWriteFailed, "stdin", nil), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := unanswerable(tt.err)
			if got != tt.want || ok != tt.ok {
				t.Errorf("unanswerable() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEventQueue(t *testing.T) {
	q := newEventQueue()
	q.push(claude.ExitEvent{SessionID: "a"})
	q.push(claude.ExitEvent{SessionID: "b"})

	select {
	case <-q.ready:
	default:
		t.Fatal("ready not signalled")
	}

	got := q.drain()
	if len(got) != 2 || got[0].Session() != "a" || got[1].Session() != "b" {
		t.Errorf("drain() = %v", got)
	}
	if len(q.drain()) != 0 {
		t.Error("second drain not empty")
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claudebot.toml")
	if err := os.WriteFile(path, []byte("[agent]\nmodel = \"haiku\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	app := &CLI{Config: path, Executable: "/opt/claude", Container: "dev"}
	e, err := app.env(t.Context())
	if err != nil {
		t.Fatalf("env() error = %v", err)
	}

	want := config.Default()
	want.Agent.Model = "haiku"
	want.Agent.Executable = "/opt/claude"
	want.Sandbox.Container = "dev"
	if e.cfg.Agent.Model != want.Agent.Model ||
		e.cfg.Agent.Executable != want.Agent.Executable ||
		e.cfg.Sandbox.Container != want.Sandbox.Container {
		t.Errorf("cfg = %+v", e.cfg)
	}
}
