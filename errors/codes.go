package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Container errors
const (
	// ErrCodeUnknownModule indicates no module is registered under the requested key.
	ErrCodeUnknownModule ErrorCode = "UNKNOWN_MODULE"
	// ErrCodeUnresolvedDependency indicates a module or one of its dependencies could not be obtained.
	ErrCodeUnresolvedDependency ErrorCode = "UNRESOLVED_DEPENDENCY"
	// ErrCodeCircularDependency indicates a dependency cycle was found.
	ErrCodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	// ErrCodeDuplicateModule indicates a module is already registered under the key.
	ErrCodeDuplicateModule ErrorCode = "DUPLICATE_MODULE"
	// ErrCodeInvalidDefinition indicates a module definition is malformed.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"
	// ErrCodeTypeMismatch indicates a resolved instance has an unexpected type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// An unresolved module can succeed on a later attempt once its missing
// dependency has been defined, so callers may retry it.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeUnresolvedDependency: true,
	ErrCodeTimeout:              true,
	ErrCodeInternal:             false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
