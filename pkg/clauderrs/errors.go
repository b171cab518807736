// Package clauderrs provides the error framework shared by the claudebot
// packages. Errors carry a category, a stable code and free-form metadata so
// callers can branch on failure kind without string matching.
package clauderrs

// ErrorCategory groups related failures.
type ErrorCategory string

const (
	// CategoryProcess represents child-process failures (spawn, exit, signals).
	CategoryProcess ErrorCategory = "process"
	// CategoryTimeout represents operations that exceeded their time bound.
	CategoryTimeout ErrorCategory = "timeout"
	// CategoryTransport represents stdio pipe failures.
	CategoryTransport ErrorCategory = "transport"
	// CategoryProtocol represents malformed or unexpected wire messages.
	CategoryProtocol ErrorCategory = "protocol"
	// CategoryValidation represents invalid caller input.
	CategoryValidation ErrorCategory = "validation"
	// CategoryConfig represents configuration loading failures.
	CategoryConfig ErrorCategory = "config"
	// CategorySandbox represents container runtime failures.
	CategorySandbox ErrorCategory = "sandbox"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

// Process error codes.
const (
	ErrCodeProcessNotFound    ErrorCode = "process_not_found"
	ErrCodeProcessSpawnFailed ErrorCode = "process_spawn_failed"
	ErrCodeProcessExited      ErrorCode = "process_exited"
	ErrCodeProcessSignal      ErrorCode = "process_signal_escalated"
	ErrCodeProcessStderr      ErrorCode = "process_stderr"
)

// Timeout error codes.
const (
	ErrCodeExecTimeout ErrorCode = "exec_timeout"
)

// Transport error codes.
const (
	ErrCodeReadFailed  ErrorCode = "read_failed"
	ErrCodeWriteFailed ErrorCode = "write_failed"
	ErrCodePipeSetup   ErrorCode = "pipe_setup_failed"
)

// Protocol error codes.
const (
	ErrCodeInvalidMessage ErrorCode = "invalid_message"
	ErrCodeEncodeFailed   ErrorCode = "encode_failed"
)

// Validation error codes.
const (
	ErrCodeMissingField  ErrorCode = "missing_field"
	ErrCodeInvalidFormat ErrorCode = "invalid_format"
)

// Config error codes.
const (
	ErrCodeConfigRead    ErrorCode = "config_read_failed"
	ErrCodeConfigInvalid ErrorCode = "config_invalid"
)

// Sandbox error codes.
const (
	ErrCodeRuntimeUnavailable ErrorCode = "runtime_unavailable"
	ErrCodeContainerMissing   ErrorCode = "container_missing"
)
