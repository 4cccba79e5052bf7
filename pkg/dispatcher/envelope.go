// Package dispatcher routes incoming COMMS messages to action resolution methods.
package dispatcher

import (
	"encoding/json"

	"github.com/morezero/content-actions/pkg/actions"
)

// Method names.
const (
	MethodGetAction   = "getAction"
	MethodListActions = "listActions"
	MethodListTypes   = "listTypes"
	MethodHealth      = "health"
)

// Error codes.
const (
	CodeMethodNotFound  = "METHOD_NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeUnknownAction   = string(actions.ReasonUnknownAction)
	CodeInternal        = "INTERNAL_ERROR"
)

// ActionRequest is the JSON envelope for incoming COMMS requests.
type ActionRequest struct {
	ID     string             `json:"id"`
	Method string             `json:"method"`
	Params json.RawMessage    `json:"params"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// ActionResponse is the JSON envelope for COMMS responses.
type ActionResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	TenantID      string `json:"tenantId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	DeadlineMs    int    `json:"deadlineMs,omitempty"`
	TimeoutMs     int    `json:"timeoutMs,omitempty"`
}

// GetActionParams are the params of getAction. Action names an application
// descriptor looked up on the nearest ancestor of Path; App supplies one
// inline instead. ActionType overrides the descriptor's action type. With
// no descriptor, ActionType (or Action) is resolved as a raw action type.
type GetActionParams struct {
	Path       string               `json:"path"`
	Action     string               `json:"action,omitempty"`
	ActionType string               `json:"actionType,omitempty"`
	App        *actions.Application `json:"app,omitempty"`
	BackURI    string               `json:"backUri,omitempty"`
	Parameters actions.Params       `json:"parameters,omitempty"`
}

// GetActionResult is the result of getAction.
type GetActionResult struct {
	Available bool        `json:"available"`
	Action    *ActionView `json:"action,omitempty"`
}

// ListActionsParams are the params of listActions.
type ListActionsParams struct {
	Path    string `json:"path"`
	BackURI string `json:"backUri,omitempty"`
}

// ListActionsResult is the result of listActions.
type ListActionsResult struct {
	Path    string       `json:"path"`
	Actions []ActionView `json:"actions"`
}

// ListTypesResult is the result of listTypes.
type ListTypesResult struct {
	Types []string `json:"types"`
}

// HealthOutput is the result of health and the body of GET /health.
type HealthOutput struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Types     int    `json:"types"`
	Timestamp string `json:"timestamp"`
}

// ActionView is the wire form of an available handler.
type ActionView struct {
	Type               string `json:"type"`
	Application        string `json:"application,omitempty"`
	Description        string `json:"description,omitempty"`
	RequiredPermission string `json:"requiredPermission,omitempty"`
	BackURI            string `json:"backUri,omitempty"`
	URL                string `json:"url,omitempty"`
}
