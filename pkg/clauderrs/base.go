package clauderrs

import (
	"fmt"
	"maps"
)

// SDKError is implemented by every error the adapter reports. Errors tied
// to a session carry its id, and control request failures also carry the
// request id and tool name, so event consumers can route them without
// parsing messages.
type SDKError interface {
	error
	// Code returns the error code.
	Code() ErrorCode
	// Category returns the error category.
	Category() ErrorCategory
	// Message returns the message without category or cause.
	Message() string
	// Unwrap returns the underlying error.
	Unwrap() error
	// Metadata returns additional error metadata.
	Metadata() map[string]any
	// SessionID returns the session the error belongs to, if any.
	SessionID() string
}

// Metadata keys shared across error types.
const (
	MetadataKeySessionID = "session_id"
	MetadataKeyRequestID = "request_id"
	MetadataKeyToolName  = "tool_name"
	MetadataKeyCommand   = "command"
)

// BaseError holds the fields common to every category.
type BaseError struct {
	code     ErrorCode
	category ErrorCategory
	message  string
	cause    error
	metadata map[string]any
}

// NewBaseError creates a new base error.
func NewBaseError(
	category ErrorCategory,
	code ErrorCode,
	message string,
	cause error,
) *BaseError {
	return &BaseError{
		code:     code,
		category: category,
		message:  message,
		cause:    cause,
		metadata: make(map[string]any),
	}
}

// Error formats the error as "category: message[: cause]".
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.category, e.message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.category, e.message)
}

// Code returns the error code.
func (e *BaseError) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *BaseError) Category() ErrorCategory {
	return e.category
}

// Message returns the message without category or cause.
func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Unwrap() error {
	return e.cause
}

// Metadata returns the error metadata. The map is owned by the error.
func (e *BaseError) Metadata() map[string]any {
	return e.metadata
}

// SessionID returns the session id recorded on the error.
func (e *BaseError) SessionID() string {
	return e.metadataString(MetadataKeySessionID)
}

// RequestID returns the control request id recorded on the error.
func (e *BaseError) RequestID() string {
	return e.metadataString(MetadataKeyRequestID)
}

// ToolName returns the tool name recorded on the error.
func (e *BaseError) ToolName() string {
	return e.metadataString(MetadataKeyToolName)
}

// WithMetadata adds metadata to the error.
func (e *BaseError) WithMetadata(key string, value any) *BaseError {
	e.metadata[key] = value

	return e
}

// WithMetadataMap adds multiple metadata items to the error.
func (e *BaseError) WithMetadataMap(metadata map[string]any) *BaseError {
	maps.Copy(e.metadata, metadata)

	return e
}

// withControlRequest records the ids of a control request. Empty values
// are skipped so they never shadow values set earlier.
func (e *BaseError) withControlRequest(sessionID, requestID, toolName string) {
	md := make(map[string]any, 3)
	for k, v := range map[string]string{
		MetadataKeySessionID: sessionID,
		MetadataKeyRequestID: requestID,
		MetadataKeyToolName:  toolName,
	} {
		if v != "" {
			md[k] = v
		}
	}
	_ = e.WithMetadataMap(md)
}

func (e *BaseError) metadataString(key string) string {
	s, _ := e.metadata[key].(string)

	return s
}
