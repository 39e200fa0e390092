package store

import "errors"

// ErrNotFound is returned by lookups (threads, messages, catalog rows) that
// find nothing. It is never returned by Queue operations: a missing queue
// item is reported as a nil result, not an error (see queue.EventQueue).
var ErrNotFound = errors.New("store: not found")

// ErrThreadArchived is returned by any operation that would advance an
// archived thread past pending.
var ErrThreadArchived = errors.New("store: thread is archived")

// ErrDuplicateExternalID names an externalId that collides with a different,
// still-active thread. No Store in this module returns it: memstore does not
// check for the collision, and mongostore's unique index on active external
// ids rejects the insert with the driver's duplicate-key error instead.
var ErrDuplicateExternalID = errors.New("store: external id already in use by an active thread")
