package actions

import (
	"fmt"
	"log/slog"
)

const (
	factoryLogPrefix  = "actions:factory"
	defaultActionType = BrowseActionName
)

// Config holds factory configuration.
type Config struct {
	// DefaultActionType is used when a request names no action.
	DefaultActionType string
}

// DefaultConfig returns the default factory configuration.
func DefaultConfig() Config {
	return Config{DefaultActionType: defaultActionType}
}

// Factory is the single entry point that turns an operation request into a
// ready handler.
type Factory struct {
	registry *Registry
	config   Config
}

// NewFactoryParams holds parameters for NewFactory.
type NewFactoryParams struct {
	// Registry defaults to DefaultRegistry().
	Registry *Registry
	Config   Config
}

// NewFactory creates a new Factory.
func NewFactory(params NewFactoryParams) *Factory {
	cfg := params.Config
	if cfg.DefaultActionType == "" {
		cfg.DefaultActionType = defaultActionType
	}
	reg := params.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Factory{registry: reg, config: cfg}
}

// Registry returns the registry the factory resolves against.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Request describes one resolution call.
type Request struct {
	ActionType  string
	Application *Application
	Content     Content
	BackURI     string
	Parameters  Params
	Fallback    FallbackResolver
	State       interface{}
}

// CreateAction resolves actionType for content without an application
// descriptor. A nil handler with a nil error means no action is available.
func (f *Factory) CreateAction(actionType string, content Content, backURI string, params Params, fallback FallbackResolver, state interface{}) (Handler, error) {
	return f.Create(&Request{
		ActionType: actionType,
		Content:    content,
		BackURI:    backURI,
		Parameters: params,
		Fallback:   fallback,
		State:      state,
	})
}

// CreateApplicationAction resolves actionType for content on behalf of app.
// The descriptor's name drives the legality check and is handed to the handler.
func (f *Factory) CreateApplicationAction(actionType string, app *Application, content Content, backURI string, params Params, fallback FallbackResolver, state interface{}) (Handler, error) {
	return f.Create(&Request{
		ActionType:  actionType,
		Application: app,
		Content:     content,
		BackURI:     backURI,
		Parameters:  params,
		Fallback:    fallback,
		State:       state,
	})
}

// Create runs the resolution pipeline: legality gate, registry lookup,
// fallback, initialization and the visibility filter. The only error it
// produces itself is an unknown-action ActionError; initialization and
// fallback errors are returned unchanged.
func (f *Factory) Create(req *Request) (Handler, error) {
	actionType := req.ActionType

	actionName := actionType
	if req.Application != nil {
		actionName = req.Application.Name
	}

	if IsInvalidVersioningAction(req.Content, actionName) {
		slog.Debug(fmt.Sprintf("%s - %q is not applicable to %s in its versioning state", factoryLogPrefix, actionName, pathOf(req.Content)))
		return nil, nil
	}

	if actionType == "" {
		actionType = f.config.DefaultActionType
	}

	var handler Handler
	if ctor, ok := f.registry.Lookup(actionType); ok {
		handler = ctor()
	} else if hasFallback(req.Fallback) {
		h, err := req.Fallback.ResolveAction(actionType, req.Content, req.State)
		if err != nil {
			return nil, err
		}
		handler = h
	}
	if handler == nil {
		return nil, NewUnknownActionError(pathOf(req.Content), actionType)
	}

	if err := handler.Initialize(req.Content, req.BackURI, req.Application, req.Parameters); err != nil {
		return nil, err
	}

	if !handler.Visible() {
		slog.Debug(fmt.Sprintf("%s - %s is not visible on %s", factoryLogPrefix, handler.Name(), pathOf(req.Content)))
		return nil, nil
	}
	return handler, nil
}

// CreateActionOfType constructs a specific variant directly, bypassing the
// legality gate and the registry. The visibility filter still applies.
func (f *Factory) CreateActionOfType(ctor Constructor, app *Application, content Content, backURI string, params Params) (Handler, error) {
	if ctor == nil {
		return nil, nil
	}
	handler := ctor()
	if handler == nil {
		return nil, nil
	}
	if err := handler.Initialize(content, backURI, app, params); err != nil {
		return nil, err
	}
	if !handler.Visible() {
		return nil, nil
	}
	return handler, nil
}

func hasFallback(fallback FallbackResolver) bool {
	if fallback == nil {
		return false
	}
	if fn, ok := fallback.(FallbackFunc); ok && fn == nil {
		return false
	}
	return true
}

func pathOf(content Content) string {
	if content == nil {
		return ""
	}
	return content.Path()
}
