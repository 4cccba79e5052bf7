// Package actions resolves a requested operation on a content item to a
// constructed, initialized and visible handler.
package actions

import "github.com/morezero/content-actions/pkg/versioning"

// Content is the target of an operation. Versionable content additionally
// implements versioning.Facet.
type Content interface {
	Path() string
}

// PermissionChecker is implemented by content that can answer permission
// questions for the caller it was loaded for.
type PermissionChecker interface {
	HasPermission(permission string) bool
}

// Params is the free-form parameter bag handed to a handler.
type Params map[string]interface{}

// Application is a stored application descriptor. Name is the configured
// operation name used for legality checks; ActionType selects the handler.
type Application struct {
	ID          string `json:"id,omitempty"`
	ScopePath   string `json:"scopePath"`
	Name        string `json:"name"`
	ActionType  string `json:"actionType,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  Params `json:"parameters,omitempty"`
}

// Handler is one concrete operation variant. Handlers are created with no
// arguments, initialized once and then asked whether they are visible.
type Handler interface {
	// Name is the exact-case variant name the handler is registered under.
	Name() string
	Initialize(content Content, backURI string, app *Application, params Params) error
	Visible() bool
}

// Constructor creates a zero-state handler.
type Constructor func() Handler

func versioningOf(content Content) versioning.Facet {
	if content == nil {
		return nil
	}
	facet, ok := content.(versioning.Facet)
	if !ok {
		return nil
	}
	return facet
}

// IsInvalidVersioningAction applies the versioning legality gate to content.
// Content without a versioning facet is never restricted.
func IsInvalidVersioningAction(content Content, actionName string) bool {
	return versioning.IsInvalidAction(versioningOf(content), actionName)
}
