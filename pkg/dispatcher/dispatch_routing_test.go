package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/content"
	"github.com/morezero/content-actions/pkg/events"
	"github.com/morezero/content-actions/pkg/metrics"
	"github.com/morezero/content-actions/pkg/versioning"
)

const routingTestPrefix = "dispatcher:dispatch_routing_test"

type fakeContents struct {
	items map[string]content.Item
	err   error
}

func (f *fakeContents) GetContent(_ context.Context, path, viewer string) (*content.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[path]
	if !ok {
		return nil, nil
	}
	item.Viewer = viewer
	return &item, nil
}

type fakeCatalog struct {
	apps []actions.Application
	err  error
}

func (f *fakeCatalog) GetApplication(_ context.Context, _ string, name string) (*actions.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.apps {
		if f.apps[i].Name == name {
			app := f.apps[i]
			return &app, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListApplications(context.Context, string) ([]actions.Application, error) {
	return f.apps, f.err
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Ping(context.Context) error { return f.err }

var allPerms = map[string]bool{
	actions.PermissionOpen:    true,
	actions.PermissionSave:    true,
	actions.PermissionPublish: true,
	actions.PermissionApprove: true,
	actions.PermissionDelete:  true,
}

func testItems() map[string]content.Item {
	return map[string]content.Item{
		// Checked in, draft, major+minor: checkout and publish are available.
		"/Root/doc": {
			NodePath:    "/Root/doc",
			Mode:        versioning.ModeMajorAndMinor,
			Version:     content.MustParseVersion("1.1.0-draft"),
			Permissions: allPerms,
		},
		// Unversioned generic content.
		"/Root/plain": {
			NodePath:    "/Root/plain",
			Mode:        versioning.ModeNone,
			Version:     content.MustParseVersion("1.0.0"),
			Permissions: map[string]bool{actions.PermissionOpen: true},
		},
	}
}

func testApps() []actions.Application {
	return []actions.Application{
		{ScopePath: "/Root", Name: "Browse", ActionType: actions.BrowseActionName},
		{ScopePath: "/Root", Name: "CheckOut", ActionType: actions.CheckOutActionName},
		{ScopePath: "/Root", Name: "CheckIn", ActionType: actions.CheckInActionName},
		{ScopePath: "/Root", Name: "Delete", ActionType: actions.DeleteActionName},
		{ScopePath: "/Root", Name: "Handbook", ActionType: "HandbookLink",
			Parameters: actions.Params{"url": "https://example.com/handbook"}},
		{ScopePath: "/Root", Name: "Frobnicate", ActionType: "FrobnicateAction"},
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *[]*events.ActionEvent) {
	t.Helper()
	var published []*events.ActionEvent
	pub := events.NewCallbackPublisher(func(_ context.Context, e *events.ActionEvent) error {
		published = append(published, e)
		return nil
	})
	d := NewDispatcher(NewDispatcherParams{
		Factory:   actions.NewFactory(actions.NewFactoryParams{}),
		Contents:  &fakeContents{items: testItems()},
		Catalog:   &fakeCatalog{apps: testApps()},
		Publisher: pub,
		Health:    &fakeHealth{},
	})
	return d, &published
}

func request(t *testing.T, method string, params interface{}, userID string) *ActionRequest {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("%s - marshal params: %v", routingTestPrefix, err)
	}
	return &ActionRequest{
		ID:     "req-" + method,
		Method: method,
		Params: raw,
		Ctx:    &InvocationContext{UserID: userID, RequestID: "rid-1"},
	}
}

func resolutions(method, outcome string) float64 {
	return testutil.ToFloat64(metrics.Resolutions.WithLabelValues(method, outcome))
}

func TestDispatch_UnknownMethod(t *testing.T) {
	d, _ := newTestDispatcher(t)
	before := testutil.ToFloat64(metrics.Requests.WithLabelValues("nonexistent", "error"))

	resp := d.Dispatch(context.Background(), &ActionRequest{ID: "test-1", Method: "nonexistent"})

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("nonexistent", "error")) - before; got != 1 {
		t.Errorf("%s - expected unknown method counted as an error request, got %v", routingTestPrefix, got)
	}

	if resp.Ok {
		t.Errorf("%s - expected Ok=false for unknown method", routingTestPrefix)
	}
	if resp.ID != "test-1" {
		t.Errorf("%s - expected ID=test-1, got %s", routingTestPrefix, resp.ID)
	}
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("%s - expected METHOD_NOT_FOUND, got %+v", routingTestPrefix, resp.Error)
	}
	if resp.Error.Retryable {
		t.Errorf("%s - METHOD_NOT_FOUND should not be retryable", routingTestPrefix)
	}
}

func TestDispatch_GetActionAvailable(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/doc", Action: "CheckOut", BackURI: "/back"}, "alice"))

	if !resp.Ok {
		t.Fatalf("%s - expected ok, got %+v", routingTestPrefix, resp.Error)
	}
	result := resp.Result.(*GetActionResult)
	if !result.Available || result.Action == nil {
		t.Fatalf("%s - expected CheckOut to be available", routingTestPrefix)
	}
	if result.Action.Type != actions.CheckOutActionName || result.Action.Application != "CheckOut" {
		t.Errorf("%s - unexpected view %+v", routingTestPrefix, result.Action)
	}
	if result.Action.BackURI != "/back" || result.Action.RequiredPermission != actions.PermissionSave {
		t.Errorf("%s - unexpected view %+v", routingTestPrefix, result.Action)
	}
}

func TestDispatch_GetActionIllegalForState(t *testing.T) {
	d, published := newTestDispatcher(t)
	invalidBefore := resolutions(MethodGetAction, metrics.OutcomeInvalid)
	hiddenBefore := resolutions(MethodGetAction, metrics.OutcomeHidden)

	// Nothing is checked out, so check-in is not applicable.
	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/doc", Action: "CheckIn"}, "alice"))

	if got := resolutions(MethodGetAction, metrics.OutcomeInvalid) - invalidBefore; got != 1 {
		t.Errorf("%s - expected one invalid outcome, got %v", routingTestPrefix, got)
	}
	if got := resolutions(MethodGetAction, metrics.OutcomeHidden) - hiddenBefore; got != 0 {
		t.Errorf("%s - illegal action must not count as hidden, got %v", routingTestPrefix, got)
	}

	if !resp.Ok {
		t.Fatalf("%s - expected ok, got %+v", routingTestPrefix, resp.Error)
	}
	if resp.Result.(*GetActionResult).Available {
		t.Errorf("%s - CheckIn should not be available", routingTestPrefix)
	}
	if len(*published) != 0 {
		t.Errorf("%s - no event expected for an illegal action", routingTestPrefix)
	}
}

func TestDispatch_GetActionHiddenByPermission(t *testing.T) {
	d, _ := newTestDispatcher(t)
	invalidBefore := resolutions(MethodGetAction, metrics.OutcomeInvalid)
	hiddenBefore := resolutions(MethodGetAction, metrics.OutcomeHidden)

	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/plain", Action: "Delete"}, "bob"))

	if !resp.Ok || resp.Result.(*GetActionResult).Available {
		t.Errorf("%s - Delete should be hidden without the Delete permission: %+v", routingTestPrefix, resp)
	}
	if got := resolutions(MethodGetAction, metrics.OutcomeHidden) - hiddenBefore; got != 1 {
		t.Errorf("%s - expected one hidden outcome, got %v", routingTestPrefix, got)
	}
	if got := resolutions(MethodGetAction, metrics.OutcomeInvalid) - invalidBefore; got != 0 {
		t.Errorf("%s - permission denial must not count as invalid, got %v", routingTestPrefix, got)
	}
}

func TestDispatch_GetActionDefaultType(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/plain"}, "bob"))

	if !resp.Ok {
		t.Fatalf("%s - expected ok, got %+v", routingTestPrefix, resp.Error)
	}
	result := resp.Result.(*GetActionResult)
	if !result.Available || result.Action.Type != actions.BrowseActionName {
		t.Errorf("%s - expected default BrowseAction, got %+v", routingTestPrefix, result.Action)
	}
}

func TestDispatch_GetActionLinkFallback(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/doc", Action: "Handbook", BackURI: "/Root/doc"}, "alice"))

	if !resp.Ok {
		t.Fatalf("%s - expected ok, got %+v", routingTestPrefix, resp.Error)
	}
	result := resp.Result.(*GetActionResult)
	if !result.Available || result.Action.Type != actions.URLActionName {
		t.Fatalf("%s - expected a link handler, got %+v", routingTestPrefix, result.Action)
	}
	if result.Action.URL != "https://example.com/handbook?back=%2FRoot%2Fdoc" {
		t.Errorf("%s - URL = %q", routingTestPrefix, result.Action.URL)
	}
}

func TestDispatch_GetActionUnknown(t *testing.T) {
	d, published := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), request(t, MethodGetAction,
		GetActionParams{Path: "/Root/doc", Action: "Frobnicate"}, "alice"))

	if resp.Ok || resp.Error == nil || resp.Error.Code != CodeUnknownAction {
		t.Fatalf("%s - expected UNKNOWN_ACTION, got %+v", routingTestPrefix, resp)
	}
	details := resp.Error.Details.(map[string]string)
	if details["path"] != "/Root/doc" || details["actionType"] != "FrobnicateAction" {
		t.Errorf("%s - unexpected details %v", routingTestPrefix, details)
	}
	if len(*published) != 1 {
		t.Fatalf("%s - expected 1 event, got %d", routingTestPrefix, len(*published))
	}
	e := (*published)[0]
	if e.Kind != events.KindUnknownAction || e.Viewer != "alice" || e.RequestID != "rid-1" || e.Action != "Frobnicate" {
		t.Errorf("%s - unexpected event %+v", routingTestPrefix, e)
	}
}

func TestDispatch_GetActionErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)

	tests := []struct {
		name   string
		params json.RawMessage
		code   string
	}{
		{"missing path", json.RawMessage(`{"action":"CheckOut"}`), CodeInvalidArgument},
		{"bad params", json.RawMessage(`{"path":42}`), CodeInvalidArgument},
		{"unknown content", json.RawMessage(`{"path":"/Root/none","action":"Browse"}`), CodeNotFound},
		{"url without url param", json.RawMessage(`{"path":"/Root/doc","actionType":"URLAction"}`), CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Dispatch(context.Background(), &ActionRequest{ID: "e", Method: MethodGetAction, Params: tt.params})
			if resp.Ok || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("%s - expected %s, got %+v", routingTestPrefix, tt.code, resp.Error)
			}
		})
	}
}

func TestDispatch_GetActionStoreErrors(t *testing.T) {
	ctx := context.Background()
	factory := actions.NewFactory(actions.NewFactoryParams{})

	d := NewDispatcher(NewDispatcherParams{
		Factory:  factory,
		Contents: &fakeContents{err: errors.New("db down")},
		Catalog:  &fakeCatalog{},
	})
	resp := d.Dispatch(ctx, request(t, MethodGetAction, GetActionParams{Path: "/Root/doc"}, ""))
	if resp.Error == nil || resp.Error.Code != CodeInternal || !resp.Error.Retryable {
		t.Errorf("%s - expected retryable INTERNAL_ERROR, got %+v", routingTestPrefix, resp.Error)
	}

	d = NewDispatcher(NewDispatcherParams{
		Factory:  factory,
		Contents: &fakeContents{items: testItems()},
		Catalog:  &fakeCatalog{err: errors.New("db down")},
	})
	resp = d.Dispatch(ctx, request(t, MethodGetAction, GetActionParams{Path: "/Root/doc", Action: "Browse"}, ""))
	if resp.Error == nil || resp.Error.Code != CodeInternal {
		t.Errorf("%s - expected INTERNAL_ERROR, got %+v", routingTestPrefix, resp.Error)
	}
}

func TestDispatch_ListActions(t *testing.T) {
	d, published := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), request(t, MethodListActions,
		ListActionsParams{Path: "/Root/doc"}, "alice"))

	if !resp.Ok {
		t.Fatalf("%s - expected ok, got %+v", routingTestPrefix, resp.Error)
	}
	result := resp.Result.(*ListActionsResult)
	got := map[string]bool{}
	for _, a := range result.Actions {
		got[a.Application] = true
	}
	for _, want := range []string{"Browse", "CheckOut", "Delete", "Handbook"} {
		if !got[want] {
			t.Errorf("%s - expected %s in %v", routingTestPrefix, want, got)
		}
	}
	if got["CheckIn"] || got["Frobnicate"] {
		t.Errorf("%s - CheckIn and Frobnicate must be skipped, got %v", routingTestPrefix, got)
	}
	if len(*published) != 1 || (*published)[0].ActionType != "FrobnicateAction" {
		t.Errorf("%s - expected one unknown_action event for Frobnicate, got %d", routingTestPrefix, len(*published))
	}
}

func TestDispatch_ListTypes(t *testing.T) {
	d, _ := newTestDispatcher(t)

	resp := d.Dispatch(context.Background(), &ActionRequest{ID: "t", Method: MethodListTypes})
	if !resp.Ok {
		t.Fatalf("%s - expected ok", routingTestPrefix)
	}
	types := resp.Result.(*ListTypesResult).Types
	if len(types) != len(actions.BuiltinVariants()) {
		t.Errorf("%s - expected %d types, got %d", routingTestPrefix, len(actions.BuiltinVariants()), len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Errorf("%s - types not sorted: %v", routingTestPrefix, types)
			break
		}
	}
}

func TestDispatch_Health(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), &ActionRequest{ID: "h", Method: MethodHealth})
	h := resp.Result.(*HealthOutput)
	if !resp.Ok || h.Status != "healthy" || h.Database != "ok" {
		t.Errorf("%s - expected healthy, got %+v", routingTestPrefix, h)
	}

	d.health = &fakeHealth{err: errors.New("connection refused")}
	h = d.Health(context.Background())
	if h.Status != "unhealthy" || h.Database != "connection refused" {
		t.Errorf("%s - expected unhealthy, got %+v", routingTestPrefix, h)
	}
}
