package apperrors

import "errors"

// Validation errors
var (
	ErrValidationFailed = errors.New("validation failed")
)

// Course errors
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrParentNotFound       = errors.New("parent course not found")
	ErrPrerequisiteNotFound = errors.New("prerequisite course not found")
	ErrDuplicateName        = errors.New("course with this name already exists")
	ErrSelfPrerequisite     = errors.New("course cannot be a prerequisite of itself")
)

// Hierarchy errors
var (
	// ErrCycleDetected is returned when a parent assignment would make a course
	// its own ancestor, or when stored data already contains such a cycle.
	ErrCycleDetected = errors.New("course hierarchy cycle detected")
	// ErrHierarchyTooDeep is returned when an ancestor chain is longer than the configured limit.
	ErrHierarchyTooDeep = errors.New("course hierarchy exceeds maximum depth")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// Message returns the user-facing message carried by err, or fallback when
// err does not wrap a CustomError with a message.
func Message(err error, fallback string) string {
	var customErr *CustomError
	if errors.As(err, &customErr) && customErr.Message != "" {
		return customErr.Message
	}
	return fallback
}
