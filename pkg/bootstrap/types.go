// Package bootstrap provides seed configuration loading for application
// descriptors and content nodes.
package bootstrap

import (
	"fmt"
	"strings"
)

// SeedApplication is one application descriptor entry in a seed file.
type SeedApplication struct {
	ScopePath   string                 `json:"scopePath"`
	Name        string                 `json:"name"`
	ActionType  string                 `json:"actionType,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// SeedContent is one content node entry in a seed file. Version uses the
// "major.minor.0[-status]" form; Permissions maps user id to granted
// permission names.
type SeedContent struct {
	Path          string              `json:"path"`
	NodeType      string              `json:"nodeType,omitempty"`
	Kind          string              `json:"kind,omitempty"`
	Mode          string              `json:"versioningMode,omitempty"`
	ApprovingMode bool                `json:"approvingMode,omitempty"`
	Version       string              `json:"version,omitempty"`
	LockedBy      string              `json:"lockedBy,omitempty"`
	Permissions   map[string][]string `json:"permissions,omitempty"`
}

// SeedConfig is the root seed configuration.
type SeedConfig struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Applications []SeedApplication `json:"applications"`
	Content      []SeedContent     `json:"content,omitempty"`
}

// Validate reports the first malformed entry.
func (c *SeedConfig) Validate() error {
	for i, app := range c.Applications {
		if !strings.HasPrefix(app.ScopePath, "/") {
			return fmt.Errorf("%s - applications[%d]: scopePath %q must be absolute", logPrefix, i, app.ScopePath)
		}
		if app.Name == "" {
			return fmt.Errorf("%s - applications[%d]: name is required", logPrefix, i)
		}
	}
	for i, node := range c.Content {
		if !strings.HasPrefix(node.Path, "/") {
			return fmt.Errorf("%s - content[%d]: path %q must be absolute", logPrefix, i, node.Path)
		}
	}
	return nil
}

// MergeSeedConfigs appends override's entries to base. Entries with the same
// key (scope path and name for applications, path for content) are replaced.
func MergeSeedConfigs(base, override *SeedConfig) *SeedConfig {
	merged := *base
	merged.Applications = append([]SeedApplication(nil), base.Applications...)
	merged.Content = append([]SeedContent(nil), base.Content...)

	appIdx := make(map[string]int, len(merged.Applications))
	for i, app := range merged.Applications {
		appIdx[app.ScopePath+"|"+app.Name] = i
	}
	for _, app := range override.Applications {
		key := app.ScopePath + "|" + app.Name
		if i, ok := appIdx[key]; ok {
			merged.Applications[i] = app
			continue
		}
		appIdx[key] = len(merged.Applications)
		merged.Applications = append(merged.Applications, app)
	}

	nodeIdx := make(map[string]int, len(merged.Content))
	for i, node := range merged.Content {
		nodeIdx[node.Path] = i
	}
	for _, node := range override.Content {
		if i, ok := nodeIdx[node.Path]; ok {
			merged.Content[i] = node
			continue
		}
		nodeIdx[node.Path] = len(merged.Content)
		merged.Content = append(merged.Content, node)
	}

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	return &merged
}
