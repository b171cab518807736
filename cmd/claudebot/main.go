// Package main is the claudebot command: it drives Claude CLI sessions
// from a terminal or exposes them as MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yuri-xyz/claudebot/internal/config"
	"github.com/yuri-xyz/claudebot/internal/logging"
	"github.com/yuri-xyz/claudebot/pkg/claude"
	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/cli"
	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/sandbox"
)

// Build-time variables (set via ldflags).
var version = "dev"

// exitCode ends the process with a specific status without printing.
type exitCode int

func (e exitCode) Error() string {
	return "exit status " + strconv.Itoa(int(e))
}

// env is bound into every command's Run method.
type env struct {
	ctx    context.Context
	cfg    config.Config
	log    *zerolog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	_ = godotenv.Load()

	var app CLI
	kctx := kong.Parse(&app,
		kong.Name("claudebot"),
		kong.Description("Drive Claude CLI sessions over the stream-json protocol."),
		kong.UsageOnError(),
		kongVars(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	e, err := app.env(ctx)
	if err == nil {
		err = kctx.Run(e)
	}
	stop()

	var code exitCode
	if errors.As(err, &code) {
		os.Exit(int(code))
	}
	kctx.FatalIfErrorf(err)
}

func (c *CLI) env(ctx context.Context) (*env, error) {
	log := logging.ConfigureRuntime()

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(c.Config, wd)
	if err != nil {
		return nil, err
	}
	if c.Executable != "" {
		cfg.Agent.Executable = c.Executable
	}
	if c.Container != "" {
		cfg.Sandbox.Container = c.Container
	}

	return &env{
		ctx:    ctx,
		cfg:    cfg,
		log:    log,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}, nil
}

// adapter builds an orchestrator on the host spawner, or on a sandboxed one
// when the configured container is running.
func (e *env) adapter() (*claude.Adapter, error) {
	host := cli.NewSpawner(e.log)

	spawner, err := sandbox.Resolve(e.ctx, host, e.cfg.Sandbox.Runtime, e.cfg.Sandbox.Container)
	if err != nil {
		return nil, err
	}
	if sb, ok := spawner.(*sandbox.Spawner); ok {
		e.log.Info().
			Str("runtime", string(sb.Runtime())).
			Str("container", sb.Container()).
			Msg("using sandbox")
	}

	return claude.NewAdapter(e.cfg.AdapterOptions(spawner, e.log))
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
