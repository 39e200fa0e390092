// Package worker drives a single thread's event queue to quiescence: claim
// the oldest pending event, run it through its registered Processor, enqueue
// whatever it produces, repeat until nothing is left to claim.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/hooks"
	"github.com/flowmesh-ai/flowmesh/processor"
	"github.com/flowmesh-ai/flowmesh/store"
	"github.com/flowmesh-ai/flowmesh/telemetry"
)

// Worker drains one thread's queue. A Worker value is not reused across
// threads; Pool constructs a fresh one for every Run call.
type Worker struct {
	Registry *processor.Registry
	Deps     processor.Deps
	OnEvent  processor.OnEventFunc // nil means no interception configured
	Logger   telemetry.Logger
}

// ErrAlreadyProcessing is returned by Run when another worker already owns
// threadID's in-flight event; the caller should treat this as "nothing to
// do here", not a failure.
var ErrAlreadyProcessing = errors.New("worker: thread already has a processing event")

// Run drives threadID's queue to quiescence: it claims and processes pending
// events one at a time until none remain, then returns. It refuses to start
// at all if another event for threadID is already in StatusProcessing.
func (w *Worker) Run(ctx context.Context, threadID string) error {
	st := w.Deps.Catalog.Store()

	status, err := st.GetThreadStatus(ctx, threadID)
	if err != nil {
		return err
	}
	if status == store.ThreadArchived {
		return store.ErrThreadArchived
	}

	if proc, err := st.GetProcessing(ctx, threadID); err != nil {
		return err
	} else if proc != nil {
		return ErrAlreadyProcessing
	}

	for {
		next, err := st.GetNextPending(ctx, threadID)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		claimed, err := st.Claim(ctx, next.ID)
		if err != nil {
			return err
		}
		if claimed == nil {
			// Lost the race to another worker; try the next pending event.
			continue
		}

		if err := w.runOne(ctx, *claimed); err != nil {
			if w.Logger != nil {
				w.Logger.Error(ctx, "worker: event processing failed", "eventId", claimed.ID, "threadId", threadID, "err", err)
			}
			// Break rather than loop: a failing event likely means the
			// thread's state is unusable for further progress this pass.
			return err
		}
	}
}

func (w *Worker) runOne(ctx context.Context, evt event.Event) error {
	st := w.Deps.Catalog.Store()

	result, procErr := w.process(ctx, evt)
	if procErr != nil {
		_ = st.UpdateStatus(ctx, evt.ID, event.StatusFailed, procErr.Error())
		return procErr
	}

	for _, produced := range result {
		if _, err := st.Enqueue(ctx, produced); err != nil {
			_ = st.UpdateStatus(ctx, evt.ID, event.StatusFailed, err.Error())
			return err
		}
	}

	return st.UpdateStatus(ctx, evt.ID, event.StatusCompleted, "")
}

// process runs the pre-process/interception/process pipeline for evt and
// returns the events to enqueue, in order. It does not mutate evt's status;
// the caller is responsible for that. A panic raised by the processor or the
// onEvent callback is recovered and returned as an error.
func (w *Worker) process(ctx context.Context, evt event.Event) (produced []event.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			produced, err = nil, fmt.Errorf("worker: processor panicked: %v", r)
		}
	}()

	proc, ok := w.Registry.Resolve(evt.Type)
	if !ok {
		return nil, nil
	}

	preResult, err := proc.PreProcess(ctx, evt, w.Deps)
	if err != nil {
		return nil, err
	}

	if w.Deps.Bus != nil {
		_ = w.Deps.Bus.Publish(ctx, hooks.NewQueueEvent(evt))
	}

	if w.OnEvent != nil {
		onResult, err := w.OnEvent(ctx, evt)
		if err != nil {
			return nil, err
		}
		if onResult.Drop {
			if w.Deps.Bus != nil {
				_ = w.Deps.Bus.Publish(ctx, hooks.NewIntercepted(evt.ThreadID, "onEvent", evt, nil))
			}
			return preResult.ProducedEvents, nil
		}
		if onResult.ProducedEvents != nil {
			if w.Deps.Bus != nil {
				_ = w.Deps.Bus.Publish(ctx, hooks.NewIntercepted(evt.ThreadID, "onEvent", evt, onResult.ProducedEvents))
			}
			return append(preResult.ProducedEvents, onResult.ProducedEvents...), nil
		}
	}

	should, err := proc.ShouldProcess(ctx, evt, w.Deps)
	if err != nil {
		return nil, err
	}
	if !should {
		return preResult.ProducedEvents, nil
	}

	finalResult, err := proc.Process(ctx, evt, w.Deps)
	if err != nil {
		return nil, err
	}
	return append(preResult.ProducedEvents, finalResult.ProducedEvents...), nil
}
