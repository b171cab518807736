package clauderrs

// TransportError represents stdio pipe errors.
type TransportError struct {
	*BaseError
}

// NewTransportError creates a new transport error.
func NewTransportError(
	code ErrorCode,
	message string,
	cause error,
) *TransportError {
	return &TransportError{
		BaseError: NewBaseError(CategoryTransport, code, message, cause),
	}
}

// ProtocolError represents wire protocol errors.
type ProtocolError struct {
	*BaseError
	messageType string
}

// NewProtocolError creates a new protocol error.
func NewProtocolError(
	code ErrorCode,
	message string,
	cause error,
) *ProtocolError {
	return &ProtocolError{
		BaseError: NewBaseError(CategoryProtocol, code, message, cause),
	}
}

// WithMessageType adds message type metadata to the error.
func (e *ProtocolError) WithMessageType(messageType string) *ProtocolError {
	e.messageType = messageType
	_ = e.WithMetadata("message_type", messageType)

	return e
}

// WithRequest records the control request the error belongs to.
func (e *ProtocolError) WithRequest(sessionID, requestID, toolName string) *ProtocolError {
	e.withControlRequest(sessionID, requestID, toolName)

	return e
}

// MessageType returns the wire message type, if known.
func (e *ProtocolError) MessageType() string {
	return e.messageType
}
