// Package version classifies drift between the installed Claude CLI and the
// version this module was validated against. Results are advisory only.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Supported is the Claude CLI version this module was validated against.
const Supported = "2.1.29"

// Drift thresholds: the first component whose absolute difference reaches
// its threshold triggers a warning, checked major first.
const (
	MajorThreshold = 1
	MinorThreshold = 3
	PatchThreshold = 8
)

// Trigger names the component that made a version incompatible.
type Trigger string

const (
	TriggerNone  Trigger = ""
	TriggerMajor Trigger = "major"
	TriggerMinor Trigger = "minor"
	TriggerPatch Trigger = "patch"
)

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// Parsed is a major.minor.patch triplet.
type Parsed struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Patch int    `json:"patch"`
	Raw   string `json:"raw"`
}

// Drift is the signed difference installed minus supported.
type Drift struct {
	Major   int     `json:"major"`
	Minor   int     `json:"minor"`
	Patch   int     `json:"patch"`
	Trigger Trigger `json:"trigger,omitempty"`
	IsOlder bool    `json:"isOlder"`
}

// Compatibility is the verdict for an installed version.
type Compatibility struct {
	IsCompatible bool    `json:"isCompatible"`
	Installed    *Parsed `json:"installedVersion"`
	Supported    Parsed  `json:"supportedVersion"`
	Warning      string  `json:"warning,omitempty"`
	Drift        *Drift  `json:"drift"`
}

// Parse extracts a leading major.minor.patch from s, ignoring surrounding
// whitespace and any trailing text such as "(Claude Code)".
func Parse(s string) (Parsed, bool) {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Parsed{}, false
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Parsed{}, false
		}
		parts[i] = n
	}

	return Parsed{
		Major: parts[0],
		Minor: parts[1],
		Patch: parts[2],
		Raw:   fmt.Sprintf("%d.%d.%d", parts[0], parts[1], parts[2]),
	}, true
}

// CalculateDrift compares installed against supported.
func CalculateDrift(installed, supported Parsed) Drift {
	d := Drift{
		Major: installed.Major - supported.Major,
		Minor: installed.Minor - supported.Minor,
		Patch: installed.Patch - supported.Patch,
	}

	switch {
	case d.Major != 0:
		d.IsOlder = d.Major < 0
	case d.Minor != 0:
		d.IsOlder = d.Minor < 0
	default:
		d.IsOlder = d.Patch < 0
	}

	switch {
	case abs(d.Major) >= MajorThreshold:
		d.Trigger = TriggerMajor
	case abs(d.Minor) >= MinorThreshold:
		d.Trigger = TriggerMinor
	case abs(d.Patch) >= PatchThreshold:
		d.Trigger = TriggerPatch
	}

	return d
}

// Check evaluates installed against Supported. An empty string means the
// version could not be determined.
func Check(installed string) Compatibility {
	return CheckAgainst(installed, Supported)
}

// CheckAgainst evaluates installed against an arbitrary supported version.
func CheckAgainst(installed, supported string) Compatibility {
	sup, _ := Parse(supported)
	result := Compatibility{Supported: sup}

	if installed == "" {
		result.Warning = "Could not determine Claude Code CLI version."

		return result
	}

	inst, ok := Parse(installed)
	if !ok {
		result.Warning = fmt.Sprintf("Could not parse version: %q", installed)

		return result
	}

	drift := CalculateDrift(inst, sup)
	result.Installed = &inst
	result.Drift = &drift

	if drift.Trigger == TriggerNone {
		result.IsCompatible = true

		return result
	}
	result.Warning = warning(inst, sup, drift)

	return result
}

// IsCompatible reports whether installed is within the drift thresholds.
func IsCompatible(installed string) bool {
	return Check(installed).IsCompatible
}

func warning(installed, supported Parsed, d Drift) string {
	direction, action := "newer", "Please check for app updates."
	if d.IsOlder {
		direction, action = "older", "Please update Claude Code CLI."
	}

	var n int
	switch d.Trigger {
	case TriggerMajor:
		n = d.Major
	case TriggerMinor:
		n = d.Minor
	case TriggerPatch:
		n = d.Patch
	default:
		return ""
	}

	return fmt.Sprintf(
		"Claude Code CLI version %s is %d %s version(s) %s than %s. %s",
		installed.Raw, abs(n), d.Trigger, direction, supported.Raw, action,
	)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
