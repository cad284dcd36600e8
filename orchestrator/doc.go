// Package orchestrator is the scheduling heart of the engine.
//
// One round of orchestration plans phases from template goals and the
// accumulated context, runs ready phases in parallel waves, fans in agent
// results, and records every decision as an event log entry. Rounds end in
// exactly one of four statuses: complete, needs_input, error, or
// escalated. A round that ends in needs_input soft-halts: running agents
// finish and their progress is kept, but no new phase starts until the
// user responds, at which point a fresh round re-plans over the larger
// context.
package orchestrator
