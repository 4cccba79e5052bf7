package actions

import (
	"errors"
	"fmt"
)

// Reason categorizes an ActionError.
type Reason string

const (
	// ReasonUnknownAction means no registered variant and no fallback could
	// produce a handler for the requested name.
	ReasonUnknownAction Reason = "UNKNOWN_ACTION"
)

// ErrUnknownAction matches any unknown-action ActionError via errors.Is.
var ErrUnknownAction = errors.New("unknown action")

// ActionError is the structured failure raised by the factory.
type ActionError struct {
	Reason     Reason `json:"reason"`
	Path       string `json:"path"`
	ActionName string `json:"actionName"`
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: action %q cannot be resolved for %q", e.Reason, e.ActionName, e.Path)
}

// Is reports whether target is the sentinel for this error's reason.
func (e *ActionError) Is(target error) bool {
	return target == ErrUnknownAction && e.Reason == ReasonUnknownAction
}

// NewUnknownActionError creates an unknown-action error for the content path.
func NewUnknownActionError(path, actionName string) *ActionError {
	return &ActionError{Reason: ReasonUnknownAction, Path: path, ActionName: actionName}
}

// IsUnknownAction reports whether err is, or wraps, an unknown-action error.
func IsUnknownAction(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}
