package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/content"
	"github.com/morezero/content-actions/pkg/versioning"
)

const modelsLogPrefix = "db:models"

// ContentRow represents a row in the content_items table.
type ContentRow struct {
	Path           string    `json:"path"`
	NodeType       string    `json:"node_type"`
	Kind           string    `json:"kind"`
	VersioningMode string    `json:"versioning_mode"`
	ApprovingMode  bool      `json:"approving_mode"`
	Version        string    `json:"version"`
	LockedBy       *string   `json:"locked_by,omitempty"`
	Created        time.Time `json:"created"`
	Modified       time.Time `json:"modified"`
}

// ApplicationRow represents a row in the applications table.
type ApplicationRow struct {
	ID          string    `json:"id"`
	ScopePath   string    `json:"scope_path"`
	Name        string    `json:"name"`
	ActionType  string    `json:"action_type"`
	Description *string   `json:"description,omitempty"`
	Parameters  []byte    `json:"parameters,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// ToItem builds the content snapshot seen by viewer, who holds permissions.
func (r *ContentRow) ToItem(viewer string, permissions []string) (*content.Item, error) {
	mode, err := versioning.ParseMode(r.VersioningMode)
	if err != nil {
		return nil, fmt.Errorf("%s - content %s: %w", modelsLogPrefix, r.Path, err)
	}
	version, err := content.ParseVersion(r.Version)
	if err != nil {
		return nil, fmt.Errorf("%s - content %s: %w", modelsLogPrefix, r.Path, err)
	}

	granted := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		granted[p] = true
	}
	item := &content.Item{
		NodePath:      r.Path,
		NodeType:      r.NodeType,
		NodeKind:      versioning.ParseKind(r.Kind),
		Mode:          mode,
		ApprovingMode: r.ApprovingMode,
		Version:       version,
		Viewer:        viewer,
		Permissions:   granted,
	}
	if r.LockedBy != nil {
		item.LockedBy = *r.LockedBy
	}
	return item, nil
}

// ToApplication decodes the row into an application descriptor.
func (r *ApplicationRow) ToApplication() (*actions.Application, error) {
	app := &actions.Application{
		ID:         r.ID,
		ScopePath:  r.ScopePath,
		Name:       r.Name,
		ActionType: r.ActionType,
	}
	if r.Description != nil {
		app.Description = *r.Description
	}
	if len(r.Parameters) > 0 {
		var params actions.Params
		if err := json.Unmarshal(r.Parameters, &params); err != nil {
			return nil, fmt.Errorf("%s - application %s%s parameters: %w", modelsLogPrefix, r.ScopePath, r.Name, err)
		}
		if len(params) > 0 {
			app.Parameters = params
		}
	}
	return app, nil
}
