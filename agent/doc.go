// Package agent defines the agent execution contract.
//
// An Executor holds only agent logic. The contract around it is composed
// from middleware in a fixed order: the tenant guard runs before any other
// effect, auditing brackets the execution, a timeout bounds it, and
// recovery converts panics and raw errors into structured error results.
// Every dispatch therefore ends in exactly one of four statuses: complete,
// pending_user_input, error, or escalated.
package agent
