// Package streamsink fans streaming content/tool-call events out across
// process boundaries using goa.design/pulse over Redis, so a horizontally
// scaled deployment can terminate an SSE/WebSocket connection on a different
// process than the one running the thread's Worker.
package streamsink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"
)

type (
	// ClientOptions configures the Pulse client.
	ClientOptions struct {
		// Redis is the connection backing Pulse streams. Required.
		Redis *redis.Client
		// StreamMaxLen bounds entries retained per stream. Zero uses Pulse defaults.
		StreamMaxLen int
		// OperationTimeout bounds individual Add calls. Zero means no timeout.
		OperationTimeout time.Duration
	}

	// Client exposes the subset of Pulse needed by Sink and Subscriber.
	Client interface {
		Stream(name string, opts ...streamopts.Stream) (Stream, error)
		Close(ctx context.Context) error
	}

	// Stream is a single Pulse stream handle.
	Stream interface {
		Add(ctx context.Context, event string, payload []byte) (string, error)
		NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error)
		Destroy(ctx context.Context) error
	}

	// Sink is a Pulse consumer group.
	Sink interface {
		Subscribe() <-chan *streaming.Event
		Ack(context.Context, *streaming.Event) error
		Close(context.Context)
	}

	client struct {
		redis   *redis.Client
		maxLen  int
		timeout time.Duration
	}

	handle struct {
		stream  *streaming.Stream
		timeout time.Duration
	}

	sinkAdapter struct {
		*streaming.Sink
	}
)

// NewClient builds a Pulse client over opts.Redis.
func NewClient(opts ClientOptions) (Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	return &client{redis: opts.Redis, maxLen: opts.StreamMaxLen, timeout: opts.OperationTimeout}, nil
}

func (c *client) Stream(name string, opts ...streamopts.Stream) (Stream, error) {
	if name == "" {
		return nil, errors.New("stream name is required")
	}
	var streamOptions []streamopts.Stream
	if c.maxLen > 0 {
		streamOptions = append(streamOptions, streamopts.WithStreamMaxLen(c.maxLen))
	}
	streamOptions = append(streamOptions, opts...)
	str, err := streaming.NewStream(name, c.redis, streamOptions...)
	if err != nil {
		return nil, fmt.Errorf("create pulse stream: %w", err)
	}
	return &handle{stream: str, timeout: c.timeout}, nil
}

func (c *client) Close(context.Context) error { return nil }

func (h *handle) Add(ctx context.Context, event string, payload []byte) (string, error) {
	if event == "" {
		return "", errors.New("event name is required")
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	id, err := h.stream.Add(ctx, event, payload)
	if err != nil {
		return "", fmt.Errorf("pulse add: %w", err)
	}
	return id, nil
}

func (h *handle) NewSink(ctx context.Context, name string, opts ...streamopts.Sink) (Sink, error) {
	s, err := h.stream.NewSink(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	return &sinkAdapter{Sink: s}, nil
}

func (h *handle) Destroy(ctx context.Context) error { return h.stream.Destroy(ctx) }

func (s sinkAdapter) Close(ctx context.Context) { s.Sink.Close(ctx) }
