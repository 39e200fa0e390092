// Package queue defines the durable FIFO-per-thread event queue contract.
// The queue itself has no separate storage: it is a facet of store.Store,
// split into its own package so the claim-semantics contract can be
// documented and tested independently of the rest of persistence.
package queue

import (
	"context"

	"github.com/flowmesh-ai/flowmesh/event"
)

// EventQueue is the durable event-queue facet of the Store. Implementations
// must make Claim atomic with respect to concurrent callers: two Workers
// racing to claim the same event must never both succeed.
//
// Ordering: GetNextPending returns the oldest pending event for a thread
// subject to (priority desc, createdAt asc, id asc). Implementations backed
// by a relational store typically express this as an ORDER BY clause over
// an index on (threadID, status); see store/mongostore for an index-backed
// example.
type EventQueue interface {
	// Enqueue durably persists a new event with StatusPending. The caller
	// supplies ID/CreatedAt/UpdatedAt as zero values when it wants the store
	// to assign them.
	Enqueue(ctx context.Context, e event.Event) (event.Event, error)

	// GetProcessing returns the in-flight event for threadID, if any. A
	// Worker must refuse to start a new claim loop for a thread that already
	// has an event in StatusProcessing.
	GetProcessing(ctx context.Context, threadID string) (*event.Event, error)

	// GetNextPending returns the oldest pending, non-expired event for
	// threadID ordered by (priority desc, createdAt asc, id asc), or nil if
	// none exists. Expired pending events (TTL elapsed) must be transitioned
	// to StatusFailed as a side effect rather than returned. No failure
	// reason is kept: Event has no reason field, and neither memstore nor
	// mongostore stores the reason passed to UpdateStatus.
	GetNextPending(ctx context.Context, threadID string) (*event.Event, error)

	// Claim atomically transitions eventID from StatusPending to
	// StatusProcessing. It returns (nil, nil) — not an error — if the event
	// was not in StatusPending when the claim was attempted (lost race, or
	// someone else already completed it); callers must treat that as "try
	// the next one", not a failure.
	Claim(ctx context.Context, eventID string) (*event.Event, error)

	// UpdateStatus transitions eventID to a terminal status (Completed or
	// Failed). Implementations must reject further transitions once a
	// terminal status has been recorded.
	UpdateStatus(ctx context.Context, eventID string, status event.Status, reason string) error
}
