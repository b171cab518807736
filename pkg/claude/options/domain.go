// Package options provides the configuration types consumed by the
// adapter: per-adapter options, per-session runner configuration, and the
// argument builder that turns a runner configuration into CLI flags.
package options

// PermissionMode defines how the CLI handles permissions for a session.
type PermissionMode string

const (
	// PermissionModeDefault uses the CLI's default permission behavior.
	PermissionModeDefault PermissionMode = "default"
	// PermissionModeAcceptEdits automatically accepts all file edits.
	PermissionModeAcceptEdits PermissionMode = "acceptEdits"
	// PermissionModePlan starts the session in plan mode.
	PermissionModePlan PermissionMode = "plan"
	// PermissionModeBypassPermissions bypasses all permission checks.
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
)

// Valid reports whether m is empty or a known mode.
func (m PermissionMode) Valid() bool {
	switch m {
	case "", PermissionModeDefault, PermissionModeAcceptEdits,
		PermissionModePlan, PermissionModeBypassPermissions:
		return true
	default:
		return false
	}
}
