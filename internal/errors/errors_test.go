package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// APIError Tests
// -----------------------------------------------------------------------------

func TestNewAPIError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := NewAPIError(tt.status, "boom")
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
			if !err.IsUserFacing() {
				t.Error("IsUserFacing() = false, want true")
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status only",
			err:  NewAPIError(400, "invalid session ID"),
			want: "api error [status=400]: invalid session ID",
		},
		{
			name: "with request",
			err:  NewAPIError(404, "session not found").WithRequest("GET", "/admin/workflow/x"),
			want: "api error [status=404, request=GET /admin/workflow/x]: session not found",
		},
		{
			name: "transport",
			err:  NewTransportError(New("connection refused")),
			want: "api error: could not reach workflow service: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_IsSessionNotFound(t *testing.T) {
	if !errors.Is(NewAPIError(http.StatusNotFound, "gone"), ErrSessionNotFound) {
		t.Error("404 APIError should match ErrSessionNotFound")
	}
	if errors.Is(NewAPIError(http.StatusBadRequest, "bad"), ErrSessionNotFound) {
		t.Error("400 APIError should not match ErrSessionNotFound")
	}
}

func TestTransportError_IsRetryable(t *testing.T) {
	err := NewTransportError(New("dial tcp: refused"))
	if !IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
	if err.IsUserFacing() {
		t.Error("transport errors should not be shown to users verbatim")
	}
}

// -----------------------------------------------------------------------------
// WorkflowError Tests
// -----------------------------------------------------------------------------

func TestWorkflowError_Error(t *testing.T) {
	cause := NewAPIError(500, "failed to start research")
	err := NewWorkflowError("could not start research", cause).
		WithSession("s-1").
		WithStep("research").
		WithOperation("start")

	want := "workflow error [session=s-1, step=research, op=start]: could not start research: " + cause.Error()
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !err.IsRetryable() {
		t.Error("WorkflowError should inherit retryability from a 5xx cause")
	}
	if err.Message() != "could not start research" {
		t.Errorf("Message() = %q", err.Message())
	}
}

func TestWorkflowError_InheritsSeverity(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  Severity
	}{
		{"validation", NewValidationError("is required").WithField("title"), SeverityWarning},
		{"conflict", NewConflictError("reorder", "draft is outdated"), SeverityWarning},
		{"api", NewAPIError(500, "boom"), SeverityError},
		{"plain", New("boom"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewWorkflowError("could not save", tt.cause)
			if got := GetSeverity(err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkflowError_UnwrapsToAPIError(t *testing.T) {
	cause := NewAPIError(422, "topic already exists")
	err := fmt.Errorf("outer: %w", NewWorkflowError("could not add custom topic", cause))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Message() != "topic already exists" {
		t.Errorf("Message() = %q", apiErr.Message())
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be at least 5 characters").WithField("topic").WithValue("abc")

	if got, want := err.Error(), "validation error [field=topic, value=abc]: must be at least 5 characters"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if err.IsRetryable() {
		t.Error("ValidationError should not be retryable")
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("reorder", "topics changed since reorder mode was entered")

	if !errors.Is(err, ErrStaleDraft) {
		t.Error("ConflictError should wrap ErrStaleDraft")
	}
	if got, want := err.Error(), "conflict [reorder]: topics changed since reorder mode was entered"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("lesson", "l-1")
	if got, want := err.Error(), "lesson 'l-1' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want warning", GetSeverity(err))
	}
}

// -----------------------------------------------------------------------------
// Helper Tests
// -----------------------------------------------------------------------------

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api message verbatim", NewAPIError(400, "at least one topic must be approved"), "at least one topic must be approved"},
		{"wrapped api message", NewWorkflowError("x", NewAPIError(500, "ollama timeout")), "ollama timeout"},
		{"transport uses fallback", NewTransportError(New("refused")), "Could not load"},
		{"validation", NewValidationError("is required").WithField("title"), "title: is required"},
		{"conflict", NewConflictError("reorder", "draft is outdated"), "draft is outdated"},
		{"validation without field", NewWorkflowError("x", NewValidationError("nothing to save")), "nothing to save"},
		{"not found", fmt.Errorf("lookup: %w", NewNotFoundError("lesson", "l-1")), "lesson 'l-1' not found"},
		{"workflow without user-facing cause", NewWorkflowError("x", New("boom")), "Could not load"},
		{"plain error", New("boom"), "Could not load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "Could not load"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrap(ErrBusy, "regenerate topic")
	if err.Error() != "regenerate topic: operation already in progress" {
		t.Errorf("Wrap() = %q", err.Error())
	}
	if !errors.Is(err, ErrBusy) {
		t.Error("Wrap should preserve the chain")
	}
}
