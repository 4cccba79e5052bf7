package actions

// Base carries the initialization state shared by the built-in handlers.
type Base struct {
	content    Content
	backURI    string
	app        *Application
	params     Params
	visible    bool
	permission string
}

func (b *Base) initialize(content Content, backURI string, app *Application, params Params, permission string) {
	b.content = content
	b.backURI = backURI
	b.app = app
	b.params = params
	b.permission = permission
	b.visible = true
	if checker, ok := content.(PermissionChecker); ok && permission != "" {
		b.visible = checker.HasPermission(permission)
	}
}

// Content returns the target content.
func (b *Base) Content() Content { return b.content }

// BackURI returns the caller's back reference.
func (b *Base) BackURI() string { return b.backURI }

// Application returns the descriptor the handler was created for, if any.
func (b *Base) Application() *Application { return b.app }

// Parameters returns the parameters given at initialization.
func (b *Base) Parameters() Params { return b.params }

// RequiredPermission returns the permission gating visibility.
func (b *Base) RequiredPermission() string { return b.permission }

// Visible reports whether the handler may be offered for its content.
func (b *Base) Visible() bool { return b.visible }
