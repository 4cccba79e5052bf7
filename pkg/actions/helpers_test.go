package actions

import "github.com/morezero/content-actions/pkg/versioning"

// plainContent has no versioning facet and no permission checks.
type plainContent struct {
	path string
}

func (c *plainContent) Path() string { return c.path }

// versionedContent implements every optional capability.
type versionedContent struct {
	path        string
	mode        versioning.Mode
	kind        versioning.Kind
	checkIn     bool
	checkOut    bool
	undo        bool
	forceUndo   bool
	publish     bool
	approvable  bool
	permissions map[string]bool
}

func (c *versionedContent) Path() string { return c.path }
func (c *versionedContent) VersioningMode() versioning.Mode { return c.mode }
func (c *versionedContent) Kind() versioning.Kind { return c.kind }
func (c *versionedContent) HasCheckIn() bool { return c.checkIn }
func (c *versionedContent) HasCheckOut() bool { return c.checkOut }
func (c *versionedContent) HasUndoCheckOut() bool { return c.undo }
func (c *versionedContent) HasForceUndoCheckOutRight() bool { return c.forceUndo }
func (c *versionedContent) HasPublish() bool { return c.publish }
func (c *versionedContent) Approvable() bool { return c.approvable }

func (c *versionedContent) HasPermission(permission string) bool {
	if c.permissions == nil {
		return true
	}
	return c.permissions[permission]
}

// recordingHandler records its initialization arguments.
type recordingHandler struct {
	name        string
	visible     bool
	initErr     error
	initialized bool
	content     Content
	backURI     string
	app         *Application
	params      Params
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Initialize(content Content, backURI string, app *Application, params Params) error {
	h.initialized = true
	h.content = content
	h.backURI = backURI
	h.app = app
	h.params = params
	return h.initErr
}

func (h *recordingHandler) Visible() bool { return h.visible }
