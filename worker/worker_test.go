package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh-ai/flowmesh/catalog"
	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/processor"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/store/memstore"
)

// fakeProcessor lets each test script exactly what ShouldProcess/PreProcess/
// Process return and observe how many times each was called.
type fakeProcessor struct {
	shouldProcess bool
	preResult     processor.Result
	result        processor.Result
	processErr    error

	preCalls     int
	processCalls int
}

func (f *fakeProcessor) ShouldProcess(context.Context, event.Event, processor.Deps) (bool, error) {
	return f.shouldProcess, nil
}

func (f *fakeProcessor) PreProcess(context.Context, event.Event, processor.Deps) (processor.Result, error) {
	f.preCalls++
	return f.preResult, nil
}

func (f *fakeProcessor) Process(context.Context, event.Event, processor.Deps) (processor.Result, error) {
	f.processCalls++
	return f.result, f.processErr
}

func newTestWorker(t *testing.T, fp *fakeProcessor, onEvent processor.OnEventFunc) (*Worker, *memstore.Store) {
	t.Helper()
	ms := memstore.New()
	_, err := ms.FindOrCreateThread(context.Background(), "t1", store.ThreadSpec{})
	require.NoError(t, err)
	reg := processor.NewRegistry()
	reg.Register(event.TypeMessage, fp)
	return &Worker{
		Registry: reg,
		Deps:     processor.Deps{Catalog: catalog.New(ms)},
		OnEvent:  onEvent,
	}, ms
}

// produced returns a follow-up event of a type with no registered
// Processor, so draining it terminates the loop instead of recursing back
// into fp and re-producing more follow-ups forever.
func produced(threadID string) event.Event {
	return event.Event{ThreadID: threadID, Type: event.TypeSystem, Payload: event.SystemPayload{Kind: "follow-up"}}
}

func TestWorkerRunDrainsQueueToCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{shouldProcess: true}
	w, ms := newTestWorker(t, fp, nil)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))
	assert.Equal(t, 1, fp.processCalls)

	proc, err := ms.GetProcessing(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, proc)

	next, err := ms.GetNextPending(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestWorkerRunRefusesWhenThreadAlreadyProcessing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{shouldProcess: true}
	w, ms := newTestWorker(t, fp, nil)

	e, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)
	_, err = ms.Claim(ctx, e.ID)
	require.NoError(t, err)

	err = w.Run(ctx, "t1")
	assert.ErrorIs(t, err, ErrAlreadyProcessing)
	assert.Equal(t, 0, fp.processCalls)
}

func TestWorkerProcessorProducedEventsAreEnqueued(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{
		shouldProcess: true,
		result:        processor.Result{ProducedEvents: []event.Event{produced("t1")}},
	}
	w, ms := newTestWorker(t, fp, nil)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))
	assert.Equal(t, 1, fp.processCalls)

	next, err := ms.GetNextPending(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, next, "the produced follow-up event must have been drained (as a no-op) too")
}

func TestWorkerUnregisteredEventTypeIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ms := memstore.New()
	_, err := ms.FindOrCreateThread(ctx, "t1", store.ThreadSpec{})
	require.NoError(t, err)
	w := &Worker{Registry: processor.NewRegistry(), Deps: processor.Deps{Catalog: catalog.New(ms)}}

	_, err = ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeSystem})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))

	got, err := ms.GetProcessing(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkerOnEventDropDiscardsProcessOutputButKeepsPreProcessOutput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{
		shouldProcess: true,
		preResult:     processor.Result{ProducedEvents: []event.Event{produced("t1")}},
		result:        processor.Result{ProducedEvents: []event.Event{produced("t1"), produced("t1")}},
	}
	onEvent := func(context.Context, event.Event) (processor.OnEventResult, error) {
		return processor.OnEventResult{Drop: true}, nil
	}
	w, ms := newTestWorker(t, fp, onEvent)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))
	assert.Equal(t, 0, fp.processCalls, "Process must never run when onEvent drops")
	assert.Equal(t, 1, fp.preCalls, "PreProcess must still run once even though onEvent drops Process's output")

	next, err := ms.GetNextPending(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, next, "PreProcess's produced follow-up event must still have been enqueued and drained")
}

func TestWorkerOnEventOverrideReplacesProcessOutput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{
		shouldProcess: true,
		result:        processor.Result{ProducedEvents: []event.Event{produced("t1"), produced("t1"), produced("t1")}},
	}
	overrideEvents := []event.Event{produced("t1")}
	onEvent := func(context.Context, event.Event) (processor.OnEventResult, error) {
		return processor.OnEventResult{ProducedEvents: overrideEvents}, nil
	}
	w, ms := newTestWorker(t, fp, onEvent)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))
	assert.Equal(t, 0, fp.processCalls, "Process must never run once onEvent supplies a replacement")

	next, err := ms.GetNextPending(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, next, "the override's single produced event must have been enqueued and drained")
}

func TestWorkerShouldProcessFalseSkipsProcess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{shouldProcess: false}
	w, ms := newTestWorker(t, fp, nil)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx, "t1"))
	assert.Equal(t, 0, fp.processCalls)
}

func TestWorkerRunRefusesToAdvanceEventsOnArchivedThread(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{shouldProcess: true}
	w, ms := newTestWorker(t, fp, nil)

	e, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)
	_, err = ms.Archive(ctx, "t1", "done")
	require.NoError(t, err)

	err = w.Run(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrThreadArchived)
	assert.Equal(t, 0, fp.processCalls, "an archived thread's events must never reach a processor")

	got, err := ms.GetProcessing(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got, "the event must not have been claimed")

	pending, err := ms.GetNextPending(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, pending, "the event must remain pending, not advance past it")
	assert.Equal(t, e.ID, pending.ID)
}

func TestWorkerRunUnknownThreadErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fp := &fakeProcessor{shouldProcess: true}
	ms := memstore.New()
	reg := processor.NewRegistry()
	reg.Register(event.TypeMessage, fp)
	w := &Worker{Registry: reg, Deps: processor.Deps{Catalog: catalog.New(ms)}}

	err := w.Run(ctx, "never-created")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWorkerProcessErrorFailsEventAndStopsRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")
	fp := &fakeProcessor{shouldProcess: true, processErr: boom}
	w, ms := newTestWorker(t, fp, nil)

	_, err := ms.Enqueue(ctx, event.Event{ThreadID: "t1", Type: event.TypeMessage})
	require.NoError(t, err)

	err = w.Run(ctx, "t1")
	assert.ErrorIs(t, err, boom)
}
