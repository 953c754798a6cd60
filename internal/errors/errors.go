package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// LoadFailed indicates the compiler model could not be built from the project
	LoadFailed ErrorCode = "LOAD_FAILED"
	// NoBootstrapModule indicates no module in the project declares a bootstrap component
	NoBootstrapModule ErrorCode = "NO_BOOTSTRAP_MODULE"
	// ProjectNotLoaded indicates a query arrived before a successful load
	ProjectNotLoaded ErrorCode = "PROJECT_NOT_LOADED"
	// TransitionUnavailable indicates the target node has no state behind it
	TransitionUnavailable ErrorCode = "TRANSITION_UNAVAILABLE"
	// TransitionPending indicates another transition is in flight
	TransitionPending ErrorCode = "TRANSITION_PENDING"
	// HistoryDesync indicates client and engine history no longer agree
	HistoryDesync ErrorCode = "HISTORY_DESYNC"
	// SymbolNotFound indicates symbol doesn't exist
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// ChannelClosed indicates the worker channel was closed
	ChannelClosed ErrorCode = "CHANNEL_CLOSED"
	// InvalidRequest indicates a malformed channel request
	InvalidRequest ErrorCode = "INVALID_REQUEST"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// Retry suggests repeating the request later
	Retry FixActionType = "retry"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// NgrevError represents an error with code, message, and suggestions
type NgrevError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new NgrevError with the default fixes for its code
func New(code ErrorCode, message string, cause error) *NgrevError {
	return &NgrevError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a NgrevError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *NgrevError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *NgrevError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *NgrevError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *NgrevError) WithDetails(details interface{}) *NgrevError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first NgrevError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ne *NgrevError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	NoBootstrapModule: {
		{
			Type:        RunCommand,
			Command:     "ngrev symbols ${project}",
			Description: "List modules and check that one declares a bootstrap component",
		},
	},
	ProjectNotLoaded: {
		{
			Type:        RunCommand,
			Command:     "ngrev graph ${project}",
			Description: "Load a project before navigating",
		},
	},
	TransitionPending: {
		{
			Type:        Retry,
			Description: "Wait for the current navigation to finish",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
