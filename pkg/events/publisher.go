package events

import "context"

// Publisher is the interface for publishing action events.
type Publisher interface {
	Publish(ctx context.Context, event *ActionEvent) error
}

// NoOpPublisher is a Publisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// Publish is a no-op.
func (p *NoOpPublisher) Publish(_ context.Context, _ *ActionEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ActionEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ActionEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// Publish calls the callback.
func (p *CallbackPublisher) Publish(ctx context.Context, event *ActionEvent) error {
	return p.callback(ctx, event)
}
