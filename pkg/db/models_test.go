package db

import (
	"testing"

	"github.com/morezero/content-actions/pkg/content"
	"github.com/morezero/content-actions/pkg/versioning"
)

const modelsTestPrefix = "db:models_test"

func TestContentRow_ToItem(t *testing.T) {
	lockedBy := "alice"
	row := ContentRow{
		Path:           "/Root/site/doc",
		NodeType:       "Document",
		Kind:           "file",
		VersioningMode: "major+minor",
		ApprovingMode:  true,
		Version:        "2.1.0-pending",
		LockedBy:       &lockedBy,
	}

	item, err := row.ToItem("alice", []string{"Open", "Save"})
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", modelsTestPrefix, err)
	}
	if item.Path() != row.Path || item.NodeType != "Document" {
		t.Errorf("%s - unexpected identity %q %q", modelsTestPrefix, item.Path(), item.NodeType)
	}
	if item.Kind() != versioning.KindFile {
		t.Errorf("%s - Kind() = %v, want file", modelsTestPrefix, item.Kind())
	}
	if item.VersioningMode() != versioning.ModeMajorAndMinor {
		t.Errorf("%s - mode = %v, want major+minor", modelsTestPrefix, item.VersioningMode())
	}
	if item.Version.Major != 2 || item.Version.Minor != 1 || item.Version.Status != content.StatusPending {
		t.Errorf("%s - version = %+v", modelsTestPrefix, item.Version)
	}
	if item.LockedBy != "alice" || item.Viewer != "alice" {
		t.Errorf("%s - lock/viewer = %q/%q", modelsTestPrefix, item.LockedBy, item.Viewer)
	}
	if !item.HasPermission("Save") || item.HasPermission("Delete") {
		t.Errorf("%s - permissions not applied: %v", modelsTestPrefix, item.Permissions)
	}
	if !item.HasCheckIn() {
		t.Errorf("%s - viewer holding the lock should have a pending checkin", modelsTestPrefix)
	}
}

func TestContentRow_ToItemErrors(t *testing.T) {
	tests := []struct {
		name string
		row  ContentRow
	}{
		{"bad mode", ContentRow{Path: "/a", VersioningMode: "sometimes", Version: "1.0.0"}},
		{"bad version", ContentRow{Path: "/a", Version: "one"}},
		{"bad status", ContentRow{Path: "/a", Version: "1.0.0-archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.row.ToItem("bob", nil); err == nil {
				t.Errorf("%s - expected error", modelsTestPrefix)
			}
		})
	}
}

func TestApplicationRow_ToApplication(t *testing.T) {
	desc := "Open the handbook"
	row := ApplicationRow{
		ID:          "6f0c7c1e-7a43-4a8e-9d57-1b3a0f8a0e11",
		ScopePath:   "/Root/site",
		Name:        "Handbook",
		ActionType:  "URLAction",
		Description: &desc,
		Parameters:  []byte(`{"url":"https://example.com/handbook","target":"_blank"}`),
	}

	app, err := row.ToApplication()
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", modelsTestPrefix, err)
	}
	if app.Name != "Handbook" || app.ScopePath != "/Root/site" || app.Description != desc {
		t.Errorf("%s - unexpected app %+v", modelsTestPrefix, app)
	}
	if app.Parameters["url"] != "https://example.com/handbook" {
		t.Errorf("%s - url parameter = %v", modelsTestPrefix, app.Parameters["url"])
	}

	empty := ApplicationRow{ScopePath: "/Root", Name: "Browse", Parameters: []byte(`{}`)}
	app, err = empty.ToApplication()
	if err != nil {
		t.Fatalf("%s - unexpected error: %v", modelsTestPrefix, err)
	}
	if app.Parameters != nil {
		t.Errorf("%s - empty parameters should decode to nil, got %v", modelsTestPrefix, app.Parameters)
	}

	broken := ApplicationRow{ScopePath: "/Root", Name: "X", Parameters: []byte(`[1,2]`)}
	if _, err := broken.ToApplication(); err == nil {
		t.Errorf("%s - expected error for non-object parameters", modelsTestPrefix)
	}
}

func TestMarshalParameters(t *testing.T) {
	b, err := marshalParameters(nil)
	if err != nil || string(b) != "{}" {
		t.Errorf("%s - marshalParameters(nil) = %s, %v", modelsTestPrefix, b, err)
	}
	b, err = marshalParameters(map[string]interface{}{"url": "/x"})
	if err != nil || string(b) != `{"url":"/x"}` {
		t.Errorf("%s - marshalParameters = %s, %v", modelsTestPrefix, b, err)
	}
}
