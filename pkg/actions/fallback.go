package actions

// FallbackResolver produces a handler for names the registry does not know.
// Returning (nil, nil) means the name is unknown to the resolver as well.
type FallbackResolver interface {
	ResolveAction(actionType string, content Content, state interface{}) (Handler, error)
}

// FallbackFunc adapts a function to FallbackResolver.
type FallbackFunc func(actionType string, content Content, state interface{}) (Handler, error)

// ResolveAction calls f.
func (f FallbackFunc) ResolveAction(actionType string, content Content, state interface{}) (Handler, error) {
	return f(actionType, content, state)
}
