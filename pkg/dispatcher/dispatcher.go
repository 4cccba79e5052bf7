package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/content-actions/pkg/actions"
	"github.com/morezero/content-actions/pkg/catalog"
	"github.com/morezero/content-actions/pkg/commsutil"
	"github.com/morezero/content-actions/pkg/content"
	"github.com/morezero/content-actions/pkg/events"
	"github.com/morezero/content-actions/pkg/metrics"
)

const logPrefix = "dispatcher:dispatch"

// ContentSource loads content nodes as seen by a viewer. A nil item with a
// nil error means the node does not exist.
type ContentSource interface {
	GetContent(ctx context.Context, path, viewer string) (*content.Item, error)
}

// HealthChecker reports backing store connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dispatcher routes COMMS requests to action resolution.
type Dispatcher struct {
	factory   *actions.Factory
	contents  ContentSource
	catalog   catalog.Source
	publisher events.Publisher
	health    HealthChecker
}

// NewDispatcherParams holds the dependencies of a Dispatcher. Publisher and
// Health may be nil.
type NewDispatcherParams struct {
	Factory   *actions.Factory
	Contents  ContentSource
	Catalog   catalog.Source
	Publisher events.Publisher
	Health    HealthChecker
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	return &Dispatcher{
		factory:   params.Factory,
		contents:  params.Contents,
		catalog:   params.Catalog,
		publisher: pub,
		health:    params.Health,
	}
}

// Dispatch routes a request to the appropriate method and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *ActionRequest) *ActionResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))
	start := time.Now()

	var resp *ActionResponse
	switch req.Method {
	case MethodGetAction:
		resp = d.handleGetAction(ctx, req)
	case MethodListActions:
		resp = d.handleListActions(ctx, req)
	case MethodListTypes:
		resp = d.handleListTypes(req)
	case MethodHealth:
		resp = &ActionResponse{ID: req.ID, Ok: true, Result: d.Health(ctx)}
	default:
		resp = errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method), false)
	}

	metrics.RecordRequest(req.Method, resp.Ok, time.Since(start))
	return resp
}

func (d *Dispatcher) handleGetAction(ctx context.Context, req *ActionRequest) *ActionResponse {
	var input GetActionParams
	if err := commsutil.DecodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse getAction params", false)
	}
	if input.Path == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "path is required", false)
	}

	viewer := viewerOf(req)
	item, resp := d.loadContent(ctx, req.ID, input.Path, viewer)
	if resp != nil {
		metrics.RecordResolution(MethodGetAction, metrics.OutcomeNotFound)
		return resp
	}

	app := input.App
	if app == nil && input.Action != "" {
		found, err := d.catalog.GetApplication(ctx, input.Path, input.Action)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - application lookup %s %s: %v", logPrefix, input.Path, input.Action, err))
			metrics.RecordResolution(MethodGetAction, metrics.OutcomeError)
			return errorResponse(req.ID, CodeInternal, "Failed to load application", true)
		}
		app = found
	}

	var handler actions.Handler
	var err error
	gateName := input.ActionType
	if app != nil {
		gateName = app.Name
	} else if gateName == "" {
		gateName = input.Action
	}
	if app != nil {
		actionType := app.ActionType
		if input.ActionType != "" {
			actionType = input.ActionType
		}
		handler, err = d.factory.CreateApplicationAction(actionType, app, item, input.BackURI, input.Parameters, linkFallback, app)
	} else {
		actionType := input.ActionType
		if actionType == "" {
			actionType = input.Action
		}
		handler, err = d.factory.CreateAction(actionType, item, input.BackURI, input.Parameters, linkFallback, nil)
	}

	if err != nil {
		var actionErr *actions.ActionError
		if errors.As(err, &actionErr) {
			d.publishUnknown(ctx, req, viewer, input.Action, actionErr)
			metrics.RecordResolution(MethodGetAction, metrics.OutcomeUnknown)
			return &ActionResponse{
				ID: req.ID,
				Ok: false,
				Error: &ErrorDetail{
					Code:    CodeUnknownAction,
					Message: actionErr.Error(),
					Details: map[string]string{"path": actionErr.Path, "actionType": actionErr.ActionName},
				},
			}
		}
		slog.Warn(fmt.Sprintf("%s - resolve %s on %s failed: %v", logPrefix, input.Action, input.Path, err))
		metrics.RecordResolution(MethodGetAction, metrics.OutcomeError)
		return errorResponse(req.ID, CodeInvalidArgument, err.Error(), false)
	}

	if handler == nil {
		metrics.RecordResolution(MethodGetAction, unavailableOutcome(item, gateName))
		return &ActionResponse{ID: req.ID, Ok: true, Result: &GetActionResult{Available: false}}
	}
	metrics.RecordResolution(MethodGetAction, metrics.OutcomeAvailable)
	view := viewOf(handler)
	return &ActionResponse{ID: req.ID, Ok: true, Result: &GetActionResult{Available: true, Action: &view}}
}

func (d *Dispatcher) handleListActions(ctx context.Context, req *ActionRequest) *ActionResponse {
	var input ListActionsParams
	if err := commsutil.DecodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, CodeInvalidArgument, "Failed to parse listActions params", false)
	}
	if input.Path == "" {
		return errorResponse(req.ID, CodeInvalidArgument, "path is required", false)
	}

	viewer := viewerOf(req)
	item, resp := d.loadContent(ctx, req.ID, input.Path, viewer)
	if resp != nil {
		metrics.RecordResolution(MethodListActions, metrics.OutcomeNotFound)
		return resp
	}

	apps, err := d.catalog.ListApplications(ctx, input.Path)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - list applications %s: %v", logPrefix, input.Path, err))
		return errorResponse(req.ID, CodeInternal, "Failed to list applications", true)
	}

	result := &ListActionsResult{Path: input.Path, Actions: []ActionView{}}
	for i := range apps {
		app := &apps[i]
		handler, err := d.factory.CreateApplicationAction(app.ActionType, app, item, input.BackURI, nil, linkFallback, app)
		if err != nil {
			var actionErr *actions.ActionError
			if errors.As(err, &actionErr) {
				slog.Warn(fmt.Sprintf("%s - skipping %s on %s: %v", logPrefix, app.Name, input.Path, err))
				d.publishUnknown(ctx, req, viewer, app.Name, actionErr)
				metrics.RecordResolution(MethodListActions, metrics.OutcomeUnknown)
				continue
			}
			slog.Warn(fmt.Sprintf("%s - skipping %s on %s: %v", logPrefix, app.Name, input.Path, err))
			metrics.RecordResolution(MethodListActions, metrics.OutcomeError)
			continue
		}
		if handler == nil {
			metrics.RecordResolution(MethodListActions, unavailableOutcome(item, app.Name))
			continue
		}
		metrics.RecordResolution(MethodListActions, metrics.OutcomeAvailable)
		result.Actions = append(result.Actions, viewOf(handler))
	}
	return &ActionResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleListTypes(req *ActionRequest) *ActionResponse {
	return &ActionResponse{ID: req.ID, Ok: true, Result: &ListTypesResult{Types: d.factory.Registry().Names()}}
}

// Health reports database connectivity and the number of registered types.
func (d *Dispatcher) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:    "healthy",
		Database:  "ok",
		Types:     len(d.factory.Registry().Names()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if d.health == nil {
		out.Database = "not configured"
		return out
	}
	if err := d.health.Ping(ctx); err != nil {
		slog.Warn(fmt.Sprintf("%s - health check failed: %v", logPrefix, err))
		out.Status = "unhealthy"
		out.Database = err.Error()
	}
	return out
}

// --- helpers ---

func (d *Dispatcher) loadContent(ctx context.Context, id, path, viewer string) (*content.Item, *ActionResponse) {
	item, err := d.contents.GetContent(ctx, path, viewer)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - load content %s: %v", logPrefix, path, err))
		return nil, errorResponse(id, CodeInternal, "Failed to load content", true)
	}
	if item == nil {
		return nil, errorResponse(id, CodeNotFound, fmt.Sprintf("Content not found: %s", path), false)
	}
	return item, nil
}

func (d *Dispatcher) publishUnknown(ctx context.Context, req *ActionRequest, viewer, action string, actionErr *actions.ActionError) {
	event := &events.ActionEvent{
		Kind:       events.KindUnknownAction,
		Path:       actionErr.Path,
		Action:     action,
		ActionType: actionErr.ActionName,
		Viewer:     viewer,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if req.Ctx != nil {
		event.RequestID = req.Ctx.RequestID
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.Inc()
		slog.Warn(fmt.Sprintf("%s - failed to publish %s event: %v", logPrefix, event.Kind, err))
	}
}

// linkFallback produces a link handler for descriptors that carry a url
// parameter but name no registered action type.
var linkFallback = actions.FallbackFunc(func(actionType string, _ actions.Content, state interface{}) (actions.Handler, error) {
	app, ok := state.(*actions.Application)
	if !ok || app == nil {
		return nil, nil
	}
	if u, _ := app.Parameters["url"].(string); u == "" {
		return nil, nil
	}
	slog.Debug(fmt.Sprintf("%s - %q resolved as a link for %s", logPrefix, actionType, app.Name))
	return &actions.URLAction{}, nil
})

// unavailableOutcome separates actions the versioning state rules out from
// ones the viewer may not see.
func unavailableOutcome(item *content.Item, actionName string) string {
	if actions.IsInvalidVersioningAction(item, actionName) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeHidden
}

func viewerOf(req *ActionRequest) string {
	if req.Ctx == nil {
		return ""
	}
	return req.Ctx.UserID
}

func viewOf(h actions.Handler) ActionView {
	view := ActionView{Type: h.Name()}
	if a, ok := h.(interface{ Application() *actions.Application }); ok {
		if app := a.Application(); app != nil {
			view.Application = app.Name
			view.Description = app.Description
		}
	}
	if p, ok := h.(interface{ RequiredPermission() string }); ok {
		view.RequiredPermission = p.RequiredPermission()
	}
	if b, ok := h.(interface{ BackURI() string }); ok {
		view.BackURI = b.BackURI()
	}
	if u, ok := h.(interface{ URL() string }); ok {
		view.URL = u.URL()
	}
	return view
}

func errorResponse(id, code, message string, retryable bool) *ActionResponse {
	return &ActionResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
