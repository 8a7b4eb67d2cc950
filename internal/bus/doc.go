// Package bus is the central, in-process, synchronous message bus that
// decouples engine systems.
//
// The bus multiplexes six dispatch styles under one registration surface:
//
//   - Named events: heterogeneous fan-out. Handlers are kept in
//     registration order and every registration is retained.
//   - Named event creators: a factory per event name builds an event value
//     from a packed argument list, used by BroadcastByName.
//   - Typed queries, requests, creates and state changes: keyed by a
//     per-type token. Exactly one binding per type; re-registration
//     silently replaces the prior binding.
//   - Special events: named fan-out over integer-id handlers.
//   - Special requests: named single resolver from a string to an
//     optional integer id.
//
// All dispatch is synchronous and runs on the caller's goroutine; there is
// no buffering and no background delivery. A handler that returns an error
// is traced at warning severity and skipped, and the remaining handlers
// still run. Handlers registered while a broadcast is in progress take
// effect on the next broadcast: dispatch iterates a snapshot of the handler
// list taken at the start of the call, so re-entrant broadcasts and
// registrations from inside handlers are legal.
//
// Errors are never returned to callers. Missing bindings yield the
// channel's default (false, nil, zero, or a no-op) with a trace.
package bus
