package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/sandbox"
	"github.com/yuri-xyz/claudebot/pkg/claude/options"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

// fileConfig is the on-disk key mapping shared by TOML and YAML.
type fileConfig struct {
	Agent struct {
		Executable      string   `toml:"executable" yaml:"executable"`
		Model           string   `toml:"model" yaml:"model"`
		MaxTurns        int      `toml:"max_turns" yaml:"max_turns"`
		MaxBudgetUSD    float64  `toml:"max_budget_usd" yaml:"max_budget_usd"`
		SystemPrompt    string   `toml:"system_prompt" yaml:"system_prompt"`
		PermissionMode  string   `toml:"permission_mode" yaml:"permission_mode"`
		AllowedTools    []string `toml:"allowed_tools" yaml:"allowed_tools"`
		DisallowedTools []string `toml:"disallowed_tools" yaml:"disallowed_tools"`
	} `toml:"agent" yaml:"agent"`
	Adapter struct {
		ExecOutputThrottle  string   `toml:"exec_output_throttle" yaml:"exec_output_throttle"`
		ForceKillTimeout    string   `toml:"force_kill_timeout" yaml:"force_kill_timeout"`
		AvailabilityTimeout string   `toml:"availability_timeout" yaml:"availability_timeout"`
		AutoApprove         []string `toml:"auto_approve" yaml:"auto_approve"`
	} `toml:"adapter" yaml:"adapter"`
	Sandbox struct {
		Runtime   string `toml:"runtime" yaml:"runtime"`
		Container string `toml:"container" yaml:"container"`
	} `toml:"sandbox" yaml:"sandbox"`
	MCP struct {
		ConfigPath string `toml:"config_path" yaml:"config_path"`
	} `toml:"mcp" yaml:"mcp"`
}

// definedFunc reports whether a dotted key was present in the file.
type definedFunc func(key ...string) bool

// Load reads path, choosing the decoder by extension, and overlays the
// keys it defines onto Default.
func Load(path string) (Config, error) {
	var (
		raw     fileConfig
		defined definedFunc
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		defined, err = decodeTOML(path, &raw)
	case ".yaml", ".yml":
		defined, err = decodeYAML(path, &raw)
	default:
		return Config{}, clauderrs.NewConfigError(
			clauderrs.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported config extension %q", filepath.Ext(path)),
			nil,
			path,
		)
	}
	if err != nil {
		return Config{}, err
	}

	cfg, err := overlay(Default(), &raw, defined, path)
	if err != nil {
		return Config{}, err
	}

	if cfg.MCP.ConfigPath != "" && !filepath.IsAbs(cfg.MCP.ConfigPath) {
		cfg.MCP.ConfigPath = filepath.Join(filepath.Dir(path), cfg.MCP.ConfigPath)
	}

	if err := cfg.Validate(path); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Discover returns the first existing default config path in dir, or ""
// when there is none.
func Discover(dir string) string {
	for _, name := range DefaultPaths {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// LoadOrDefault loads path, or the discovered config in dir when path is
// empty, or returns Default when neither exists.
func LoadOrDefault(path, dir string) (Config, error) {
	if path == "" {
		path = Discover(dir)
	}
	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

func decodeTOML(path string, raw *fileConfig) (definedFunc, error) {
	meta, err := toml.DecodeFile(path, raw)
	if err != nil {
		return nil, readError(path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, clauderrs.NewConfigError(
			clauderrs.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown key %q", undecoded[0].String()),
			nil,
			path,
		)
	}

	return meta.IsDefined, nil
}

func decodeYAML(path string, raw *fileConfig) (definedFunc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, readError(path, err)
	}
	if len(root.Content) == 0 {
		return func(...string) bool { return false }, nil
	}
	if err := root.Content[0].Decode(raw); err != nil {
		return nil, readError(path, err)
	}

	keys := make(map[string]bool)
	collectKeys(root.Content[0], "", keys)

	return func(key ...string) bool { return keys[strings.Join(key, ".")] }, nil
}

// collectKeys records every mapping key path under n.
func collectKeys(n *yaml.Node, prefix string, keys map[string]bool) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		keys[key] = true
		collectKeys(n.Content[i+1], key, keys)
	}
}

func readError(path string, err error) error {
	code := clauderrs.ErrCodeConfigInvalid
	if errors.Is(err, os.ErrNotExist) {
		code = clauderrs.ErrCodeConfigRead
	}

	return clauderrs.NewConfigError(code, "load config", err, path)
}

func overlay(cfg Config, raw *fileConfig, defined definedFunc, path string) (Config, error) {
	if defined("agent", "executable") {
		cfg.Agent.Executable = strings.TrimSpace(raw.Agent.Executable)
	}
	if defined("agent", "model") {
		cfg.Agent.Model = strings.TrimSpace(raw.Agent.Model)
	}
	if defined("agent", "max_turns") {
		cfg.Agent.MaxTurns = raw.Agent.MaxTurns
	}
	if defined("agent", "max_budget_usd") {
		cfg.Agent.MaxBudgetUSD = raw.Agent.MaxBudgetUSD
	}
	if defined("agent", "system_prompt") {
		cfg.Agent.SystemPrompt = raw.Agent.SystemPrompt
	}
	if defined("agent", "permission_mode") {
		cfg.Agent.PermissionMode = options.PermissionMode(strings.TrimSpace(raw.Agent.PermissionMode))
	}
	if defined("agent", "allowed_tools") {
		cfg.Agent.AllowedTools = raw.Agent.AllowedTools
	}
	if defined("agent", "disallowed_tools") {
		cfg.Agent.DisallowedTools = raw.Agent.DisallowedTools
	}

	durations := []struct {
		key    string
		raw    string
		target *time.Duration
	}{
		{"exec_output_throttle", raw.Adapter.ExecOutputThrottle, &cfg.Adapter.ExecOutputThrottle},
		{"force_kill_timeout", raw.Adapter.ForceKillTimeout, &cfg.Adapter.ForceKillTimeout},
		{"availability_timeout", raw.Adapter.AvailabilityTimeout, &cfg.Adapter.AvailabilityTimeout},
	}
	for _, d := range durations {
		if !defined("adapter", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, clauderrs.NewConfigError(
				clauderrs.ErrCodeConfigInvalid,
				fmt.Sprintf("adapter.%s: invalid duration %q", d.key, d.raw),
				err,
				path,
			)
		}
		*d.target = v
	}
	if defined("adapter", "auto_approve") {
		cfg.Adapter.AutoApprove = raw.Adapter.AutoApprove
	}

	if defined("sandbox", "runtime") {
		cfg.Sandbox.Runtime = sandbox.Runtime(strings.ToLower(strings.TrimSpace(raw.Sandbox.Runtime)))
	}
	if defined("sandbox", "container") {
		cfg.Sandbox.Container = strings.TrimSpace(raw.Sandbox.Container)
	}
	if defined("mcp", "config_path") {
		cfg.MCP.ConfigPath = strings.TrimSpace(raw.MCP.ConfigPath)
	}

	return cfg, nil
}
