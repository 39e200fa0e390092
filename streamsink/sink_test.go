package streamsink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	streamopts "goa.design/pulse/streaming/options"

	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/store"
)

type fakeStream struct {
	addEvent   string
	addPayload []byte
	addErr     error
}

func (f *fakeStream) Add(_ context.Context, event string, payload []byte) (string, error) {
	f.addEvent = event
	f.addPayload = payload
	return "1-0", f.addErr
}
func (f *fakeStream) NewSink(context.Context, string, ...streamopts.Sink) (Sink, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStream) Destroy(context.Context) error { return nil }

type fakeClient struct {
	streams map[string]*fakeStream
	err     error
}

func (f *fakeClient) Stream(name string, _ ...streamopts.Stream) (Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.streams[name]
	if !ok {
		s = &fakeStream{}
		f.streams[name] = s
	}
	return s, nil
}
func (f *fakeClient) Close(context.Context) error { return nil }

func newFakeClient() *fakeClient { return &fakeClient{streams: map[string]*fakeStream{}} }

func TestNewSinkRequiresClient(t *testing.T) {
	t.Parallel()
	_, err := NewSink(SinkOptions{})
	assert.Error(t, err)
}

func TestSendPublishesToDerivedStreamID(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	s, err := NewSink(SinkOptions{Client: fc})
	require.NoError(t, err)

	evt := hooks.NewContentStream("t1", "hello", false)
	require.NoError(t, s.Send(context.Background(), evt))

	st := fc.streams["thread/t1"]
	require.NotNil(t, st)
	assert.Equal(t, string(hooks.TypeContentStream), st.addEvent)

	var env Envelope
	require.NoError(t, json.Unmarshal(st.addPayload, &env))
	assert.Equal(t, "t1", env.ThreadID)
}

func TestSendWithoutThreadIDErrors(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	s, err := NewSink(SinkOptions{Client: fc})
	require.NoError(t, err)

	evt := hooks.NewContentStream("", "hello", false)
	err = s.Send(context.Background(), evt)
	assert.Error(t, err)
}

func TestSendUsesCustomStreamID(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	s, err := NewSink(SinkOptions{
		Client:   fc,
		StreamID: func(threadID string) (string, error) { return "custom/" + threadID, nil },
	})
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), hooks.NewTokenStream("t1", "hi", true)))
	assert.NotNil(t, fc.streams["custom/t1"])
}

func TestAsSubscriberForwardsOnlyStreamShapedEvents(t *testing.T) {
	t.Parallel()
	fc := newFakeClient()
	s, err := NewSink(SinkOptions{Client: fc})
	require.NoError(t, err)
	sub := s.AsSubscriber()

	require.NoError(t, sub.HandleEvent(context.Background(), hooks.NewToolCallStream("t1", "c1", "search", "{}", true)))
	assert.NotNil(t, fc.streams["thread/t1"])

	delete(fc.streams, "thread/t1")
	require.NoError(t, sub.HandleEvent(context.Background(), hooks.NewMessageReceived(store.Message{ThreadID: "t1"})))
	assert.Nil(t, fc.streams["thread/t1"], "a non-stream event must not be forwarded")
}
