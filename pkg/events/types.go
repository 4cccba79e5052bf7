// Package events defines action events and the publishers that emit them.
package events

// Kind names an action event.
type Kind string

// KindUnknownAction is emitted when no handler could be produced for an
// action type.
const KindUnknownAction Kind = "unknown_action"

// ActionEvent describes something that happened while resolving an action.
type ActionEvent struct {
	Kind       Kind   `json:"kind"`
	Path       string `json:"path"`
	Action     string `json:"action,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	Viewer     string `json:"viewer,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	Timestamp  string `json:"timestamp"`
}
