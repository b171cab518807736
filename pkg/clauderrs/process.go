package clauderrs

import "time"

// ProcessError represents process-related errors.
type ProcessError struct {
	*BaseError
	exitCode int
	stderr   string
}

// NewProcessError creates a new process error.
func NewProcessError(
	code ErrorCode,
	message string,
	cause error,
	exitCode int,
	stderr string,
) *ProcessError {
	err := &ProcessError{
		BaseError: NewBaseError(CategoryProcess, code, message, cause),
		exitCode:  exitCode,
		stderr:    stderr,
	}

	_ = err.WithMetadata("exit_code", exitCode)
	_ = err.WithMetadata("stderr", stderr)

	return err
}

// ExitCode returns the process exit code, or -1 when it never exited.
func (e *ProcessError) ExitCode() int {
	return e.exitCode
}

// Stderr returns the process stderr output.
func (e *ProcessError) Stderr() string {
	return e.stderr
}

// WithCommand adds command metadata to the error.
func (e *ProcessError) WithCommand(command string) *ProcessError {
	_ = e.WithMetadata(MetadataKeyCommand, command)

	return e
}

// WithSessionID adds session ID metadata to the error.
func (e *ProcessError) WithSessionID(sessionID string) *ProcessError {
	_ = e.WithMetadata(MetadataKeySessionID, sessionID)

	return e
}

// TimeoutError reports that a bounded operation was killed after its
// deadline. It is never produced for a process that exited on its own.
type TimeoutError struct {
	*BaseError
	timeout time.Duration
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(message string, cause error, timeout time.Duration) *TimeoutError {
	err := &TimeoutError{
		BaseError: NewBaseError(CategoryTimeout, ErrCodeExecTimeout, message, cause),
		timeout:   timeout,
	}
	_ = err.WithMetadata("timeout", timeout.String())

	return err
}

// Timeout returns the bound that was exceeded.
func (e *TimeoutError) Timeout() time.Duration {
	return e.timeout
}
