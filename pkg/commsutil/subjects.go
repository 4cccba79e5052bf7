package commsutil

import "strings"

// Default COMMS subjects.
const (
	SubjectActions      = "content.actions.v1"
	SubjectActionEvents = "content.actions.events"
)

// BuildEventSubject builds the granular subject for an event kind under base,
// e.g. "content.actions.events.unknown_action". Dots in kind are replaced so
// the kind stays a single subject token.
func BuildEventSubject(base, kind string) string {
	if base == "" {
		base = SubjectActionEvents
	}
	return base + "." + strings.ReplaceAll(kind, ".", "_")
}
