package clauderrs

// ValidationError represents validation-related errors.
type ValidationError struct {
	*BaseError
	field string
	value any
}

// NewValidationError creates a new validation error.
func NewValidationError(
	code ErrorCode,
	message string,
	cause error,
	field string,
	value any,
) *ValidationError {
	err := &ValidationError{
		BaseError: NewBaseError(CategoryValidation, code, message, cause),
		field:     field,
		value:     value,
	}

	_ = err.WithMetadata("field", field)
	_ = err.WithMetadata("value", value)

	return err
}

// Field returns the validation field name.
func (e *ValidationError) Field() string {
	return e.field
}

// Value returns the validation value.
func (e *ValidationError) Value() any {
	return e.value
}

// ConfigError represents configuration file errors.
type ConfigError struct {
	*BaseError
	path string
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string, cause error, path string) *ConfigError {
	err := &ConfigError{
		BaseError: NewBaseError(CategoryConfig, code, message, cause),
		path:      path,
	}
	_ = err.WithMetadata("path", path)

	return err
}

// Path returns the configuration file path.
func (e *ConfigError) Path() string {
	return e.path
}

// SandboxError represents container runtime errors.
type SandboxError struct {
	*BaseError
	runtime string
}

// NewSandboxError creates a new sandbox error.
func NewSandboxError(code ErrorCode, message string, cause error, runtime string) *SandboxError {
	err := &SandboxError{
		BaseError: NewBaseError(CategorySandbox, code, message, cause),
		runtime:   runtime,
	}
	_ = err.WithMetadata("runtime", runtime)

	return err
}

// Runtime returns the container runtime involved.
func (e *SandboxError) Runtime() string {
	return e.runtime
}
