package version_test

import (
	"strings"
	"testing"

	"github.com/yuri-xyz/claudebot/pkg/claude/version"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want version.Parsed
		ok   bool
	}{
		{"2.1.29", version.Parsed{Major: 2, Minor: 1, Patch: 29, Raw: "2.1.29"}, true},
		{"2.1.29 (Claude Code)", version.Parsed{Major: 2, Minor: 1, Patch: 29, Raw: "2.1.29"}, true},
		{"  3.0.1-beta\n", version.Parsed{Major: 3, Minor: 0, Patch: 1, Raw: "3.0.1"}, true},
		{"02.01.029", version.Parsed{Major: 2, Minor: 1, Patch: 29, Raw: "2.1.29"}, true},
		{"", version.Parsed{}, false},
		{"abc", version.Parsed{}, false},
		{"1.2", version.Parsed{}, false},
		{"v2.1.29", version.Parsed{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := version.Parse(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Parse(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCalculateDrift(t *testing.T) {
	v := func(s string) version.Parsed {
		p, ok := version.Parse(s)
		if !ok {
			t.Fatalf("bad fixture %q", s)
		}

		return p
	}

	tests := []struct {
		name        string
		installed   string
		supported   string
		wantTrigger version.Trigger
		wantOlder   bool
	}{
		{"same", "2.1.29", "2.1.29", version.TriggerNone, false},
		{"major newer", "3.0.0", "2.1.29", version.TriggerMajor, false},
		{"major older", "1.0.0", "2.1.29", version.TriggerMajor, true},
		{"minor below threshold", "2.3.29", "2.1.29", version.TriggerNone, false},
		{"minor at threshold", "2.4.0", "2.1.29", version.TriggerMinor, false},
		{"patch below threshold", "2.1.36", "2.1.29", version.TriggerNone, false},
		{"patch at threshold", "2.1.21", "2.1.29", version.TriggerPatch, true},
		{"major wins over minor", "3.9.0", "2.1.29", version.TriggerMajor, false},
		{"older by minor only", "2.0.29", "2.1.29", version.TriggerNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := version.CalculateDrift(v(tt.installed), v(tt.supported))
			if d.Trigger != tt.wantTrigger {
				t.Errorf("Trigger = %q, want %q", d.Trigger, tt.wantTrigger)
			}
			if d.IsOlder != tt.wantOlder {
				t.Errorf("IsOlder = %v, want %v", d.IsOlder, tt.wantOlder)
			}
		})
	}
}

func TestDriftAgainstItselfIsNone(t *testing.T) {
	for _, s := range []string{"0.0.0", "2.1.29", "10.20.30"} {
		p, _ := version.Parse(s)
		if d := version.CalculateDrift(p, p); d.Trigger != version.TriggerNone {
			t.Errorf("%s: Trigger = %q", s, d.Trigger)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		compatible  bool
		wantWarning string
		wantDrift   bool
	}{
		{"absent", "", false, "Could not determine Claude Code CLI version.", false},
		{"unparseable", "garbage", false, `Could not parse version: "garbage"`, false},
		{"exact", "2.1.29 (Claude Code)", true, "", true},
		{
			"major newer",
			"3.5.29",
			false,
			"Claude Code CLI version 3.5.29 is 1 major version(s) newer than 2.1.29. Please check for app updates.",
			true,
		},
		{
			"patch within threshold",
			"2.1.25",
			true,
			"",
			true,
		},
		{
			"patch older",
			"2.1.10",
			false,
			"Claude Code CLI version 2.1.10 is 19 patch version(s) older than 2.1.29. Please update Claude Code CLI.",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := version.Check(tt.in)
			if got.IsCompatible != tt.compatible {
				t.Errorf("IsCompatible = %v, want %v", got.IsCompatible, tt.compatible)
			}
			if got.Warning != tt.wantWarning {
				t.Errorf("Warning = %q, want %q", got.Warning, tt.wantWarning)
			}
			if (got.Drift != nil) != tt.wantDrift {
				t.Errorf("Drift = %+v, wantDrift %v", got.Drift, tt.wantDrift)
			}
			if got.Supported.Raw != version.Supported {
				t.Errorf("Supported = %+v", got.Supported)
			}
		})
	}
}

func TestCheckMajorScenario(t *testing.T) {
	got := version.Check("3.5.29")
	if got.IsCompatible || got.Drift == nil || got.Drift.Trigger != version.TriggerMajor {
		t.Fatalf("unexpected verdict %+v", got)
	}
	if !strings.Contains(got.Warning, "newer") {
		t.Errorf("Warning = %q", got.Warning)
	}
	if !version.IsCompatible("2.1.30") {
		t.Error("IsCompatible(2.1.30) = false")
	}
}
