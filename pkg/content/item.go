package content

import (
	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/versioning"
)

// Item is a content node as seen by Viewer. It satisfies actions.Content,
// actions.PermissionChecker and versioning.Facet.
type Item struct {
	NodePath      string
	NodeType      string
	NodeKind      versioning.Kind
	Mode          versioning.Mode
	ApprovingMode bool
	Version       Version
	// LockedBy is the user holding the checkout, empty when not checked out.
	LockedBy    string
	Viewer      string
	Permissions map[string]bool
}

var (
	_ actions.Content           = (*Item)(nil)
	_ actions.PermissionChecker = (*Item)(nil)
	_ versioning.Facet          = (*Item)(nil)
)

func (i *Item) Path() string { return i.NodePath }

func (i *Item) HasPermission(permission string) bool {
	return i.Permissions[permission]
}

func (i *Item) VersioningMode() versioning.Mode { return i.Mode }

func (i *Item) Kind() versioning.Kind { return i.NodeKind }

func (i *Item) locked() bool {
	return i.Version.Status == StatusLocked || i.LockedBy != ""
}

func (i *Item) lockedByViewer() bool {
	return i.locked() && i.LockedBy != "" && i.LockedBy == i.Viewer
}

// HasCheckIn reports whether the viewer holds a checkout that can be checked in.
func (i *Item) HasCheckIn() bool { return i.lockedByViewer() }

// HasCheckOut reports whether the item is free to be checked out.
func (i *Item) HasCheckOut() bool { return !i.locked() }

func (i *Item) HasUndoCheckOut() bool { return i.lockedByViewer() }

// HasForceUndoCheckOutRight reports whether the viewer may discard a checkout
// held by anyone.
func (i *Item) HasForceUndoCheckOutRight() bool {
	return i.locked() && i.HasPermission(actions.PermissionForceCheckin)
}

// HasPublish reports whether a minor draft is waiting to be published.
func (i *Item) HasPublish() bool {
	return !i.locked() && i.Mode == versioning.ModeMajorAndMinor && i.Version.Status == StatusDraft
}

// Approvable reports whether an approval decision is pending for the viewer.
func (i *Item) Approvable() bool {
	return i.ApprovingMode && i.Version.Status == StatusPending && i.HasPermission(actions.PermissionApprove)
}
