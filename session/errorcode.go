// SPDX-License-Identifier: MIT

package session

// ErrorCode classifies session failures for callers that decide whether to
// surface a retry action.
type ErrorCode string

const (
	CodeConfigurationError   ErrorCode = "CONFIGURATION_ERROR"
	CodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	CodeInsufficientStorage  ErrorCode = "INSUFFICIENT_STORAGE"
	CodeInvalidOutputFile    ErrorCode = "INVALID_OUTPUT_FILE"
	CodeNetworkError         ErrorCode = "NETWORK_ERROR"
	CodeCameraError          ErrorCode = "CAMERA_ERROR"
	CodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
)

// DefaultRetryable reports whether failures with this code are worth
// offering a retry action for. Transient conditions (network, camera,
// storage pressure, a credential store hiccup) are; structural ones are not.
func (c ErrorCode) DefaultRetryable() bool {
	switch c {
	case CodeNetworkError, CodeCameraError, CodeInsufficientStorage, CodeConfigurationError:
		return true
	case CodePermissionDenied, CodeInvalidOutputFile, CodeUnsupportedOperation, CodeInternalError:
		return false
	}
	return false
}

func (c ErrorCode) String() string { return string(c) }
