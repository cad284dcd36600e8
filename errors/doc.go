// Package errors provides the structured error taxonomy for the
// orchestration core. Every failure that crosses a component boundary
// carries a code, a category, and retry semantics, so the orchestrator can
// make fallback decisions without string matching on raw error text.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: temporary failures where retry may succeed (LLM timeouts, etc.)
//   - Permanent: failures where retry will not help (access denied, bad input)
//   - Resource: exhaustion issues (provider rate limits, quotas)
//   - Internal: unexpected errors indicating bugs or system failures
//
// # Security Errors
//
// TENANT_ACCESS_DENIED and MISSING_USER_TOKEN are security errors: they are
// never retryable, never subject to fallback strategies, and their messages
// must never contain tenant data. Use IsSecurity to detect them.
//
// # Usage
//
// Create a new error:
//
//	err := errors.TenantAccessDenied("profile_collection")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "executing phase business_discovery")
//
// Check if an error is retryable before applying a fallback strategy:
//
//	if errors.IsRetryable(err) {
//	    // bounded retry
//	}
package errors
