package entities

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrorKindConfiguration        ErrorKind = "ConfigurationError"
	ErrorKindInfrastructure       ErrorKind = "InfrastructureError"
	ErrorKindExecutionFailed      ErrorKind = "ExecutionFailed"
	ErrorKindApprovalRequired     ErrorKind = "ApprovalRequired"
	ErrorKindTimeout              ErrorKind = "TimeoutError"
	ErrorKindHealthCheckFailed    ErrorKind = "HealthCheckFailed"
	ErrorKindConfirmationMismatch ErrorKind = "ConfirmationMismatch"
)

// Sentinels for errors.Is. A *WorkflowError matches the sentinel of its kind.
var (
	ErrConfiguration        = &WorkflowError{Kind: ErrorKindConfiguration}
	ErrInfrastructure       = &WorkflowError{Kind: ErrorKindInfrastructure}
	ErrExecutionFailed      = &WorkflowError{Kind: ErrorKindExecutionFailed}
	ErrApprovalRequired     = &WorkflowError{Kind: ErrorKindApprovalRequired}
	ErrTimeout              = &WorkflowError{Kind: ErrorKindTimeout}
	ErrHealthCheckFailed    = &WorkflowError{Kind: ErrorKindHealthCheckFailed}
	ErrConfirmationMismatch = &WorkflowError{Kind: ErrorKindConfirmationMismatch}
)

// WorkflowError carries enough context for an operator to diagnose a failed
// step without re-running it.
type WorkflowError struct {
	Kind     ErrorKind
	Stage    Stage
	Resource string
	// Status is the last observed platform status of Resource.
	Status string
	Reason string
	Err    error
}

func (e *WorkflowError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Stage != "" {
		fmt.Fprintf(&b, " stage=%s", e.Stage)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " resource=%s", e.Resource)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " status=%s", e.Status)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	t, ok := target.(*WorkflowError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithStage returns a copy of e bound to stage, unless one is already set.
func (e *WorkflowError) WithStage(stage Stage) *WorkflowError {
	if e.Stage != "" {
		return e
	}
	c := *e
	c.Stage = stage
	return &c
}

func NewConfigurationError(reason string) *WorkflowError {
	return &WorkflowError{Kind: ErrorKindConfiguration, Reason: reason}
}

func NewInfrastructureError(resource, op string, err error) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindInfrastructure,
		Resource: resource,
		Reason:   "failed to " + op,
		Err:      err,
	}
}

func NewExecutionFailedError(resource string, status ExecutionStatus, reason string) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindExecutionFailed,
		Resource: resource,
		Status:   string(status),
		Reason:   reason,
	}
}

func NewApprovalRequiredError(resource string, status ApprovalStatus) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindApprovalRequired,
		Resource: resource,
		Status:   string(status),
		Reason:   "model package is not approved",
	}
}

func NewTimeoutError(resource, status, waitingFor string) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindTimeout,
		Resource: resource,
		Status:   status,
		Reason:   "gave up waiting for " + waitingFor,
	}
}

func NewHealthCheckFailedError(resource string, status EndpointStatus, reason string) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindHealthCheckFailed,
		Resource: resource,
		Status:   string(status),
		Reason:   reason,
	}
}

func NewConfirmationMismatchError(resource string) *WorkflowError {
	return &WorkflowError{
		Kind:     ErrorKindConfirmationMismatch,
		Resource: resource,
		Reason:   "confirmation token must be exactly DELETE",
	}
}

// KindOf returns the kind of the first WorkflowError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind, true
	}
	return "", false
}
