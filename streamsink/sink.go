package streamsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowmesh-ai/flowmesh/hooks"
)

type (
	// Envelope wraps a hooks.Event for transmission over a Pulse stream.
	Envelope struct {
		Type      string    `json:"type"`
		ThreadID  string    `json:"thread_id"`
		Timestamp time.Time `json:"timestamp"`
		Payload   any       `json:"payload,omitempty"`
	}

	// SinkOptions configures Sink.
	SinkOptions struct {
		// Client is the Pulse client used to publish events. Required.
		Client Client
		// StreamID derives the target Pulse stream name from a thread ID.
		// Defaults to "thread/<threadID>".
		StreamID func(threadID string) (string, error)
	}

	// Sink publishes onTokenStream/onContentStream/onToolCallStream events
	// to a Pulse stream keyed by thread, so remote subscribers can follow a
	// thread's live output without sharing a process with its Worker.
	Sink struct {
		client   Client
		streamID func(string) (string, error)
	}
)

// NewSink constructs a streaming fan-out Sink.
func NewSink(opts SinkOptions) (*Sink, error) {
	if opts.Client == nil {
		return nil, errors.New("pulse client is required")
	}
	streamID := opts.StreamID
	if streamID == nil {
		streamID = func(threadID string) (string, error) {
			if threadID == "" {
				return "", errors.New("stream event missing thread id")
			}
			return fmt.Sprintf("thread/%s", threadID), nil
		}
	}
	return &Sink{client: opts.Client, streamID: streamID}, nil
}

// Send publishes evt to the Pulse stream derived from its thread ID. Only
// stream-shaped events (TokenStream/ContentStream/ToolCallStream) carry
// useful payload; other event types are published for completeness but
// remote subscribers typically filter by Type.
func (s *Sink) Send(ctx context.Context, evt hooks.Event) error {
	streamID, err := s.streamID(evt.ThreadID())
	if err != nil {
		return err
	}
	st, err := s.client.Stream(streamID)
	if err != nil {
		return err
	}
	env := Envelope{
		Type:      string(evt.Type()),
		ThreadID:  evt.ThreadID(),
		Timestamp: time.Now().UTC(),
		Payload:   evt,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = st.Add(ctx, env.Type, payload)
	return err
}

// Close releases the underlying Pulse client.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// AsSubscriber satisfies hooks.Subscriber, letting Sink register directly on
// a hooks.Bus to forward every published event.
func (s *Sink) AsSubscriber() hooks.Subscriber {
	return hooks.SubscriberFunc(func(ctx context.Context, evt hooks.Event) error {
		switch evt.Type() {
		case hooks.TypeTokenStream, hooks.TypeContentStream, hooks.TypeToolCallStream:
			return s.Send(ctx, evt)
		default:
			return nil
		}
	})
}
