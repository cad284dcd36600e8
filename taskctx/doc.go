// Package taskctx provides the append-only event log that records
// everything that happens to a compliance task.
//
// A TaskContext is identified by an immutable context ID and scoped to one
// tenant. Its history is a sequence of ContextEntry values, each attributable
// to exactly one actor (system, agent, or user) and carrying reasoning when
// the actor is not human. Entries are never mutated or removed; corrections
// are new entries referencing the corrected entry.
//
// # Ordering
//
// The store assigns a strictly increasing sequence number per context at
// append time. Wall-clock timestamps on entries are informational only:
// agents run in parallel with clock skew, so the sequence number is the
// sole ordering authority.
//
// # Projection
//
// CurrentState is a projection, not a source of truth. It is derived by
// folding history left-to-right with Project, and folding the same history
// twice yields an identical state. Unknown operations merge their payload
// into the accumulated data but never touch status or phase, so readers
// tolerate operation verbs introduced after they were built.
//
// # Idempotent appends
//
// Append failures must not silently drop agent output. Callers retry with
// the same entry ID; the store recognizes the ID and returns the original
// sequence number instead of duplicating the entry.
package taskctx
