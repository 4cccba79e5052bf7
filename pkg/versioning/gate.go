package versioning

import "strings"

// Canonical (lower-case) operation names checked by the gate.
const (
	ActionCheckIn           = "checkin"
	ActionCheckOut          = "checkout"
	ActionUndoCheckOut      = "undocheckout"
	ActionForceUndoCheckOut = "forceundocheckout"
	ActionPublish           = "publish"
	ActionApprove           = "approve"
	ActionReject            = "reject"
)

// Facet is the versioning capability of a content item. Content that is not
// versionable simply does not implement it.
type Facet interface {
	VersioningMode() Mode
	Kind() Kind
	HasCheckIn() bool
	HasCheckOut() bool
	HasUndoCheckOut() bool
	HasForceUndoCheckOutRight() bool
	HasPublish() bool
	Approvable() bool
}

// IsInvalidAction reports whether the named operation is structurally meaningless
// for the current versioning state described by facet. Unknown names, an empty
// name and a nil facet are always legal.
func IsInvalidAction(facet Facet, actionName string) bool {
	if actionName == "" || facet == nil {
		return false
	}

	switch strings.ToLower(actionName) {
	case ActionCheckIn:
		return !facet.HasCheckIn()
	case ActionCheckOut:
		// Files and pages may be checked out even when versioning is off.
		kind := facet.Kind()
		exempt := kind == KindFile || kind == KindPage
		return (facet.VersioningMode().IsNone() && !exempt) || !facet.HasCheckOut()
	case ActionUndoCheckOut:
		return !facet.HasUndoCheckOut()
	case ActionForceUndoCheckOut:
		return !facet.HasForceUndoCheckOutRight()
	case ActionPublish:
		return facet.VersioningMode().IsNone() || !facet.HasPublish()
	case ActionApprove, ActionReject:
		return !facet.Approvable()
	default:
		return false
	}
}
