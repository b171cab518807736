package clauderrs

import "errors"

// AsSDKError extracts an SDKError from the error chain.
func AsSDKError(err error) (SDKError, bool) {
	var sdkErr SDKError
	if errors.As(err, &sdkErr) {
		return sdkErr, true
	}

	return nil, false
}

func hasCategory(err error, category ErrorCategory) bool {
	if sdkErr, ok := AsSDKError(err); ok {
		return sdkErr.Category() == category
	}

	return false
}

// IsProcessError checks if the error is a process error.
func IsProcessError(err error) bool {
	return hasCategory(err, CategoryProcess)
}

// IsTimeout checks if the error is a timeout error.
func IsTimeout(err error) bool {
	return hasCategory(err, CategoryTimeout)
}

// IsTransportError checks if the error is a transport error.
func IsTransportError(err error) bool {
	return hasCategory(err, CategoryTransport)
}

// IsProtocolError checks if the error is a protocol error.
func IsProtocolError(err error) bool {
	return hasCategory(err, CategoryProtocol)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return hasCategory(err, CategoryValidation)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	return hasCategory(err, CategoryConfig)
}

// IsSandboxError checks if the error is a sandbox error.
func IsSandboxError(err error) bool {
	return hasCategory(err, CategorySandbox)
}
