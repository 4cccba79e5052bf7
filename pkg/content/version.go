// Package content provides the concrete content item that the action factory
// evaluates: a snapshot of a stored node as seen by one viewer.
package content

import (
	"fmt"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "content:version"

// Status is the lifecycle status carried by a content version.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusLocked   Status = "locked"
	StatusRejected Status = "rejected"
)

var knownStatuses = map[Status]bool{
	StatusApproved: true,
	StatusDraft:    true,
	StatusPending:  true,
	StatusLocked:   true,
	StatusRejected: true,
}

// Version is a content version: major.minor plus lifecycle status.
type Version struct {
	Major  int
	Minor  int
	Status Status
}

// ParseVersion parses a version string of the form "1.2.0-draft". A missing
// pre-release part means approved; a leading "V" is accepted.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "V")
	v, err := masterminds.NewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, s, err)
	}

	status := StatusApproved
	if pre := v.Prerelease(); pre != "" {
		status = Status(strings.ToLower(pre))
	}
	if !knownStatuses[status] {
		return Version{}, fmt.Errorf("%s - unknown version status %q in %q", versionLogPrefix, status, s)
	}
	return Version{Major: int(v.Major()), Minor: int(v.Minor()), Status: status}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in the form accepted by ParseVersion.
func (v Version) String() string {
	if v.Status == "" || v.Status == StatusApproved {
		return fmt.Sprintf("%d.%d.0", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d.0-%s", v.Major, v.Minor, v.Status)
}
