// Package errors provides centralized error definitions and error handling utilities
// for coursegen. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - APIError: a non-success response (or transport failure) from the workflow service
//   - WorkflowError: a failed orchestrator operation, tagged with session, step and operation
//
// Semantic errors represent common error conditions:
//   - NotFoundError: a session, topic or lesson is not present in the current snapshot
//   - ValidationError: invalid input, rejected before any request is sent
//   - ConflictError: a local draft no longer matches the authoritative session
//
// # Usage
//
//	err := errors.NewAPIError(http.StatusBadRequest, "invalid session ID").
//		WithRequest("GET", "/admin/workflow/abc")
//
//	if errors.IsRetryable(err) { ... }
//	notify(errors.UserMessage(err, "Could not load session"))
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors whose message can be shown to users as is
//   - Severity: Warning for rejected input, Error for failed operations
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning marks input or local state the user can correct.
	SeverityWarning Severity = iota
	// SeverityError marks a failed request or operation.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrNoSession indicates that an operation needs a session but none is loaded.
	ErrNoSession = New("no workflow session loaded")
	// ErrSessionNotFound indicates that the service does not know the session.
	ErrSessionNotFound = New("session not found")
	// ErrInvalidResponse indicates the service answered with an unusable payload.
	ErrInvalidResponse = New("invalid response from server")
)

// Orchestrator-related sentinel errors
var (
	// ErrBusy indicates the same item already has an operation in flight.
	ErrBusy = New("operation already in progress")
	// ErrClosed indicates the orchestrator has been torn down.
	ErrClosed = New("orchestrator closed")
	// ErrNotInReorderMode indicates a reorder operation outside reorder mode.
	ErrNotInReorderMode = New("not in reorder mode")
	// ErrStaleDraft indicates a reorder draft built from an outdated session.
	ErrStaleDraft = New("draft is stale")
	// ErrDeclined indicates the user declined a confirmation.
	ErrDeclined = New("action declined")
)

// ErrInvalidInput indicates that input validation failed.
var ErrInvalidInput = New("invalid input")

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CourseError is the base interface for all coursegen errors.
type CourseError interface {
	error

	Unwrap() error
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if Message can be shown to end users.
	IsUserFacing() bool

	// Message returns the error's own message, without context or cause.
	Message() string
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRetryable() bool {
	return e.retryable
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

func (e *baseError) Message() string {
	return e.message
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// APIError represents a failed call to the workflow service. Message carries the
// human-readable text from the service's error payload, verbatim.
//
// Example:
//
//	err := errors.NewAPIError(404, "session not found").WithRequest("GET", "/admin/workflow/x")
//	fmt.Println(err) // "api error [status=404, request=GET /admin/workflow/x]: session not found"
type APIError struct {
	baseError
	StatusCode int // 0 for transport failures
	Method     string
	Path       string
}

// NewAPIError creates an APIError for an HTTP status and service message.
// Server-side (5xx) and transport failures are retryable.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			retryable:  statusCode == 0 || statusCode >= http.StatusInternalServerError || statusCode == http.StatusTooManyRequests,
			userFacing: true,
		},
		StatusCode: statusCode,
	}
}

// NewTransportError wraps a network failure that produced no HTTP response.
// Its message is not shown to users; callers describe the failed operation
// instead.
func NewTransportError(cause error) *APIError {
	e := NewAPIError(0, "could not reach workflow service")
	e.cause = cause
	e.userFacing = false
	return e
}

// WithRequest records the method and path of the failed request.
func (e *APIError) WithRequest(method, path string) *APIError {
	e.Method = method
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	var parts []string
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Method != "" {
		parts = append(parts, fmt.Sprintf("request=%s %s", e.Method, e.Path))
	}

	prefix := "api error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("api error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	if target == ErrSessionNotFound && e.StatusCode == http.StatusNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// WorkflowError represents a failed orchestrator operation.
//
// Example:
//
//	err := errors.NewWorkflowError("could not proceed to refinement", apiErr).
//		WithSession("abc").WithStep("selection").WithOperation("advance")
type WorkflowError struct {
	baseError
	SessionID string
	Step      string
	Operation string
}

// NewWorkflowError creates a new WorkflowError. Severity and retryability
// are taken from cause. The message summarizes the operation, so user
// messages come from the cause.
func NewWorkflowError(message string, cause error) *WorkflowError {
	return &WorkflowError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  GetSeverity(cause),
			retryable: IsRetryable(cause),
		},
	}
}

// WithSession adds a session ID to the error context.
func (e *WorkflowError) WithSession(id string) *WorkflowError {
	e.SessionID = id
	return e
}

// WithStep adds the pipeline step to the error context.
func (e *WorkflowError) WithStep(step string) *WorkflowError {
	e.Step = step
	return e
}

// WithOperation adds the operation name to the error context.
func (e *WorkflowError) WithOperation(op string) *WorkflowError {
	e.Operation = op
	return e
}

// Error returns the formatted error message.
func (e *WorkflowError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Step != "" {
		parts = append(parts, fmt.Sprintf("step=%s", e.Step))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}

	prefix := "workflow error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("workflow error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *WorkflowError) Is(target error) bool {
	if _, ok := target.(*WorkflowError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents an item missing from the current session snapshot.
//
// Example:
//
//	err := errors.NewNotFoundError("lesson", "abc123")
//	fmt.Println(err) // "lesson 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state detected before a request is sent.
//
// Example:
//
//	err := errors.NewValidationError("must be at least 5 characters").WithField("topic")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// ConflictError represents a client-side draft that diverged from the
// authoritative session.
type ConflictError struct {
	baseError
	ResourceType string
}

// NewConflictError creates a new ConflictError wrapping ErrStaleDraft.
func NewConflictError(resourceType, message string) *ConflictError {
	return &ConflictError{
		baseError: baseError{
			message:    message,
			cause:      ErrStaleDraft,
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
	}
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict [%s]: %s", e.ResourceType, e.message)
}

// Is checks if this error matches the target.
func (e *ConflictError) Is(target error) bool {
	if _, ok := target.(*ConflictError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var courseErr CourseError
	if As(err, &courseErr) {
		return courseErr.IsRetryable()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CourseError.
func GetSeverity(err error) Severity {
	var courseErr CourseError
	if As(err, &courseErr) {
		return courseErr.Severity()
	}
	return SeverityError
}

// UserMessage extracts the text to show a user for err: the message of the
// outermost user-facing error in the chain, such as a service message
// verbatim, or fallback when there is none. A validation error is prefixed
// with its field.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = Unwrap(e) {
		courseErr, ok := e.(CourseError)
		if !ok || !courseErr.IsUserFacing() || courseErr.Message() == "" {
			continue
		}
		if v, ok := e.(*ValidationError); ok && v.Field != "" {
			return fmt.Sprintf("%s: %s", v.Field, v.message)
		}
		return courseErr.Message()
	}
	return fallback
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
