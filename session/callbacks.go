package session

import (
	"context"

	"github.com/flowmesh-ai/flowmesh/hooks"
)

// Callbacks is the host-facing lifecycle surface: a plain function per
// published hooks.Event type. A nil field means the host does not observe
// that event. Streaming callbacks (OnTokenStream/OnContentStream/
// OnToolCallStream) are fire-and-forget and never override anything;
// onEvent interception is configured separately via Options.OnEvent.
type Callbacks struct {
	OnMessageReceived func(ctx context.Context, evt *hooks.MessageReceivedEvent) error
	OnMessageSent     func(ctx context.Context, evt *hooks.MessageSentEvent) error
	OnToolCalling     func(ctx context.Context, evt *hooks.ToolCallingEvent) error
	OnToolCompleted   func(ctx context.Context, evt *hooks.ToolCompletedEvent) error
	OnLLMCompleted    func(ctx context.Context, evt *hooks.LLMCompletedEvent) error
	OnTokenStream     func(ctx context.Context, evt *hooks.TokenStreamEvent) error
	OnContentStream   func(ctx context.Context, evt *hooks.ContentStreamEvent) error
	OnToolCallStream  func(ctx context.Context, evt *hooks.ToolCallStreamEvent) error
	OnIntercepted     func(ctx context.Context, evt *hooks.InterceptedEvent) error
	OnQueueEvent      func(ctx context.Context, evt *hooks.QueueEvent) error
}

// Subscriber adapts c to a hooks.Subscriber, dispatching each published
// event to its matching field and treating a nil field as "ignore".
func (c Callbacks) Subscriber() hooks.Subscriber {
	return hooks.SubscriberFunc(func(ctx context.Context, evt hooks.Event) error {
		switch e := evt.(type) {
		case *hooks.MessageReceivedEvent:
			if c.OnMessageReceived != nil {
				return c.OnMessageReceived(ctx, e)
			}
		case *hooks.MessageSentEvent:
			if c.OnMessageSent != nil {
				return c.OnMessageSent(ctx, e)
			}
		case *hooks.ToolCallingEvent:
			if c.OnToolCalling != nil {
				return c.OnToolCalling(ctx, e)
			}
		case *hooks.ToolCompletedEvent:
			if c.OnToolCompleted != nil {
				return c.OnToolCompleted(ctx, e)
			}
		case *hooks.LLMCompletedEvent:
			if c.OnLLMCompleted != nil {
				return c.OnLLMCompleted(ctx, e)
			}
		case *hooks.TokenStreamEvent:
			if c.OnTokenStream != nil {
				return c.OnTokenStream(ctx, e)
			}
		case *hooks.ContentStreamEvent:
			if c.OnContentStream != nil {
				return c.OnContentStream(ctx, e)
			}
		case *hooks.ToolCallStreamEvent:
			if c.OnToolCallStream != nil {
				return c.OnToolCallStream(ctx, e)
			}
		case *hooks.InterceptedEvent:
			if c.OnIntercepted != nil {
				return c.OnIntercepted(ctx, e)
			}
		case *hooks.QueueEvent:
			if c.OnQueueEvent != nil {
				return c.OnQueueEvent(ctx, e)
			}
		}
		return nil
	})
}

// Register builds a Subscriber from cb and registers it on bus, returning
// the Subscription so the host can later Close it.
func Register(bus hooks.Bus, cb Callbacks) (hooks.Subscription, error) {
	return bus.Register(cb.Subscriber())
}
