// Package versioning holds the versioning state model of content items and the
// legality gate that decides whether an operation makes sense for that state.
package versioning

import (
	"fmt"
	"strings"
)

// Mode is the versioning policy tier of a content item. Modes are ordered:
// anything at or below ModeNone tracks no revisions.
type Mode int

const (
	// ModeInherited means the item takes its policy from its container.
	ModeInherited Mode = iota
	ModeNone
	ModeMajorOnly
	ModeMajorAndMinor
)

var modeNames = map[Mode]string{
	ModeInherited:     "inherited",
	ModeNone:          "none",
	ModeMajorOnly:     "major",
	ModeMajorAndMinor: "major+minor",
}

// String returns the canonical name of the mode.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// IsNone reports whether the mode tracks no versions.
func (m Mode) IsNone() bool {
	return m <= ModeNone
}

// ParseMode parses a mode name. Accepted forms are the canonical names plus the
// common aliases "majoronly", "majorandminor" and "major_minor". Empty input
// yields ModeInherited.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inherited":
		return ModeInherited, nil
	case "none":
		return ModeNone, nil
	case "major", "majoronly", "major_only":
		return ModeMajorOnly, nil
	case "major+minor", "majorandminor", "major_minor":
		return ModeMajorAndMinor, nil
	}
	return ModeInherited, fmt.Errorf("versioning:mode - unknown versioning mode %q", s)
}

// Kind distinguishes node kinds that have their own checkout eligibility.
type Kind int

const (
	KindGeneric Kind = iota
	KindFile
	KindPage
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindPage:
		return "page"
	default:
		return "generic"
	}
}

// ParseKind parses a kind name; unknown names are generic.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return KindFile
	case "page":
		return KindPage
	default:
		return KindGeneric
	}
}
