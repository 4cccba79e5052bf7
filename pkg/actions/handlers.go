package actions

import (
	"fmt"
	"net/url"
)

// Permissions required by the built-in handlers.
const (
	PermissionOpen         = "Open"
	PermissionSave         = "Save"
	PermissionPublish      = "Publish"
	PermissionApprove      = "Approve"
	PermissionDelete       = "Delete"
	PermissionForceCheckin = "ForceCheckin"
)

// Variant names of the built-in handlers.
const (
	BrowseActionName            = "BrowseAction"
	EditActionName              = "EditAction"
	CheckInActionName           = "CheckInAction"
	CheckOutActionName          = "CheckOutAction"
	UndoCheckOutActionName      = "UndoCheckOutAction"
	ForceUndoCheckOutActionName = "ForceUndoCheckOutAction"
	PublishActionName           = "PublishAction"
	ApproveActionName           = "ApproveAction"
	RejectActionName            = "RejectAction"
	DeleteActionName            = "DeleteAction"
	URLActionName               = "URLAction"
)

// BuiltinVariants is the closed set of handler variants known at start-up.
func BuiltinVariants() []Variant {
	return []Variant{
		{Name: BrowseActionName, New: func() Handler { return &BrowseAction{} }},
		{Name: EditActionName, New: func() Handler { return &EditAction{} }},
		{Name: CheckInActionName, New: func() Handler { return &CheckInAction{} }},
		{Name: CheckOutActionName, New: func() Handler { return &CheckOutAction{} }},
		{Name: UndoCheckOutActionName, New: func() Handler { return &UndoCheckOutAction{} }},
		{Name: ForceUndoCheckOutActionName, New: func() Handler { return &ForceUndoCheckOutAction{} }},
		{Name: PublishActionName, New: func() Handler { return &PublishAction{} }},
		{Name: ApproveActionName, New: func() Handler { return &ApproveAction{} }},
		{Name: RejectActionName, New: func() Handler { return &RejectAction{} }},
		{Name: DeleteActionName, New: func() Handler { return &DeleteAction{} }},
		{Name: URLActionName, New: func() Handler { return &URLAction{} }},
	}
}

// BrowseAction opens the content. It is the default action type.
type BrowseAction struct{ Base }

// Name returns BrowseActionName.
func (a *BrowseAction) Name() string { return BrowseActionName }

// Initialize records the arguments and the required permission.
func (a *BrowseAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionOpen)
	return nil
}

// EditAction opens the content for editing. It requires Save.
type EditAction struct{ Base }

// Name returns EditActionName.
func (a *EditAction) Name() string { return EditActionName }

// Initialize records the arguments and the required permission.
func (a *EditAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionSave)
	return nil
}

// CheckInAction commits the viewer's checkout. It requires Save.
type CheckInAction struct{ Base }

// Name returns CheckInActionName.
func (a *CheckInAction) Name() string { return CheckInActionName }

// Initialize records the arguments and the required permission.
func (a *CheckInAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionSave)
	return nil
}

// CheckOutAction locks the content for the viewer. It requires Save.
type CheckOutAction struct{ Base }

// Name returns CheckOutActionName.
func (a *CheckOutAction) Name() string { return CheckOutActionName }

// Initialize records the arguments and the required permission.
func (a *CheckOutAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionSave)
	return nil
}

// UndoCheckOutAction discards the viewer's own checkout. It requires Save.
type UndoCheckOutAction struct{ Base }

// Name returns UndoCheckOutActionName.
func (a *UndoCheckOutAction) Name() string { return UndoCheckOutActionName }

// Initialize records the arguments and the required permission.
func (a *UndoCheckOutAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionSave)
	return nil
}

// ForceUndoCheckOutAction discards another user's checkout.
type ForceUndoCheckOutAction struct{ Base }

// Name returns ForceUndoCheckOutActionName.
func (a *ForceUndoCheckOutAction) Name() string { return ForceUndoCheckOutActionName }

// Initialize records the arguments and the required permission.
func (a *ForceUndoCheckOutAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionForceCheckin)
	return nil
}

// PublishAction submits a draft for approval. It requires Publish.
type PublishAction struct{ Base }

// Name returns PublishActionName.
func (a *PublishAction) Name() string { return PublishActionName }

// Initialize records the arguments and the required permission.
func (a *PublishAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionPublish)
	return nil
}

// ApproveAction accepts a pending version. It requires Approve.
type ApproveAction struct{ Base }

// Name returns ApproveActionName.
func (a *ApproveAction) Name() string { return ApproveActionName }

// Initialize records the arguments and the required permission.
func (a *ApproveAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionApprove)
	return nil
}

// RejectAction turns down a pending version. It requires Approve.
type RejectAction struct{ Base }

// Name returns RejectActionName.
func (a *RejectAction) Name() string { return RejectActionName }

// Initialize records the arguments and the required permission.
func (a *RejectAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionApprove)
	return nil
}

// DeleteAction removes the content. It requires Delete.
type DeleteAction struct{ Base }

// Name returns DeleteActionName.
func (a *DeleteAction) Name() string { return DeleteActionName }

// Initialize records the arguments and the required permission.
func (a *DeleteAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	a.initialize(content, backURI, app, params, PermissionDelete)
	return nil
}

// URLAction points at an external address taken from the "url" parameter,
// falling back to the application's parameters.
type URLAction struct {
	Base
	target string
}

// Name returns URLActionName.
func (a *URLAction) Name() string { return URLActionName }

// Initialize resolves the target address and appends backURI as the back
// query parameter. It fails when no url is supplied.
func (a *URLAction) Initialize(content Content, backURI string, app *Application, params Params) error {
	raw := stringParam(params, "url")
	if raw == "" && app != nil {
		raw = stringParam(app.Parameters, "url")
	}
	if raw == "" {
		return fmt.Errorf("actions:handlers - %s requires a url parameter", URLActionName)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("actions:handlers - invalid url %q: %w", raw, err)
	}
	if backURI != "" {
		q := u.Query()
		q.Set("back", backURI)
		u.RawQuery = q.Encode()
	}
	a.target = u.String()
	a.initialize(content, backURI, app, params, PermissionOpen)
	return nil
}

// URL returns the resolved target address.
func (a *URLAction) URL() string { return a.target }

func stringParam(params Params, key string) string {
	if params == nil {
		return ""
	}
	s, _ := params[key].(string)
	return s
}
