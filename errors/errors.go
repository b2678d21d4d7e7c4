package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Container Error Constructors ---

// UnknownModule creates a new AppError for a key with no registered module.
func UnknownModule(key string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownModule, Message: fmt.Sprintf("No module is registered under %q.", key),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"key": key},
	}
}

// Unresolved creates a new AppError for modules whose dependencies could not be obtained.
func Unresolved(keys ...string) *AppError {
	return &AppError{
		Code: ErrCodeUnresolvedDependency, Message: fmt.Sprintf("Unable to resolve %s.", strings.Join(keys, ", ")),
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"modules": keys},
	}
}

// CircularDependency creates a new AppError describing a dependency cycle.
func CircularDependency(module, dependency string) *AppError {
	return &AppError{
		Code: ErrCodeCircularDependency, Message: fmt.Sprintf("%s and %s depend on each other.", module, dependency),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"module": module, "dependency": dependency},
	}
}

// DuplicateModule creates a new AppError for a key that is already registered.
func DuplicateModule(key string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateModule, Message: fmt.Sprintf("A module is already registered under %q.", key),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"key": key},
	}
}

// InvalidDefinition creates a new AppError for a malformed module definition.
func InvalidDefinition(key, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDefinition, Message: fmt.Sprintf("Invalid definition for %q: %s", key, reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"key": key},
	}
}

// TypeMismatch creates a new AppError for an instance of an unexpected type.
// want names the expected type.
func TypeMismatch(key string, got any, want string) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("Module %q is %T, expected %s.", key, got, want),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"key": key, "got": fmt.Sprintf("%T", got), "want": want},
	}
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Conflict creates a new AppError for a conflict with the current state of the resource.
func Conflict(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: reason,
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Timeout creates a new AppError for an operation that took too long.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}
