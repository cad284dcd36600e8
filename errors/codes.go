package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled by the orchestrator.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: LLM timeouts, malformed model output, service unavailability.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: tenant access denied, unknown template, invalid input.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates resource exhaustion or quota issues.
	// Examples: provider rate limiting, token quota exceeded.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or system failures.
	// Examples: recovered panics, corrupted event log state.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific failure types within categories.
type ErrorCode string

// Error codes for orchestration failure scenarios.
const (
	// Security errors. Never retried, never recovered via fallback.
	ErrCodeTenantAccessDenied ErrorCode = "TENANT_ACCESS_DENIED" // Agent role not in allowedAgents
	ErrCodeMissingUserToken   ErrorCode = "MISSING_USER_TOKEN"   // Tenant handle requested without a token

	// Agent execution errors.
	ErrCodeAgentExecution   ErrorCode = "AGENT_EXECUTION_ERROR" // Generic agent failure
	ErrCodeAgentTimeout     ErrorCode = "AGENT_TIMEOUT"         // Agent exceeded its execution bound
	ErrCodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"     // No registered agent for a role

	// Planning errors.
	ErrCodePlanValidation ErrorCode = "PLAN_VALIDATION" // Phase graph failed shape checks
	ErrCodeLLMResponse    ErrorCode = "LLM_RESPONSE"    // Non-JSON or schema-violating model output

	// Event log errors.
	ErrCodeContextNotFound ErrorCode = "CONTEXT_NOT_FOUND" // Unknown contextId
	ErrCodeAppendConflict  ErrorCode = "APPEND_CONFLICT"   // Optimistic sequence check failed
	ErrCodeStoreClosed     ErrorCode = "STORE_CLOSED"      // Event store has been closed

	// Interpretation errors.
	ErrCodeInterpretation  ErrorCode = "INTERPRETATION"   // UI request missing required fields
	ErrCodeUnknownTemplate ErrorCode = "UNKNOWN_TEMPLATE" // No UI template for the requested type

	// Generic errors.
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND" // Task template not in registry
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"      // Malformed caller input
	ErrCodeTimeout          ErrorCode = "TIMEOUT"            // Operation timed out
	ErrCodeCanceled         ErrorCode = "CANCELED"           // Operation was canceled
	ErrCodeRateLimit        ErrorCode = "RATE_LIMITED"       // Provider rate limit exceeded
	ErrCodeUnavailable      ErrorCode = "UNAVAILABLE"        // Collaborator temporarily unavailable
	ErrCodeInternal         ErrorCode = "INTERNAL"           // Unexpected internal error
	ErrCodePanic            ErrorCode = "PANIC"              // Recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeAgentTimeout, ErrCodeLLMResponse, ErrCodeTimeout, ErrCodeUnavailable:
		return CategoryTransient

	case ErrCodeTenantAccessDenied, ErrCodeMissingUserToken, ErrCodeAgentUnavailable,
		ErrCodePlanValidation, ErrCodeContextNotFound, ErrCodeInterpretation,
		ErrCodeUnknownTemplate, ErrCodeTemplateNotFound, ErrCodeInvalidInput,
		ErrCodeCanceled, ErrCodeAgentExecution:
		return CategoryPermanent

	case ErrCodeRateLimit:
		return CategoryResource

	case ErrCodeAppendConflict, ErrCodeStoreClosed, ErrCodeInternal, ErrCodePanic:
		return CategoryInternal

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// IsSecurity reports whether the code represents a security failure.
// Security failures must never be retried and must never leak tenant data
// in their messages.
func (c ErrorCode) IsSecurity() bool {
	return c == ErrCodeTenantAccessDenied || c == ErrCodeMissingUserToken
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTenantAccessDenied: "agent role not permitted for tenant",
	ErrCodeMissingUserToken:   "tenant data handle requires a user token",
	ErrCodeAgentExecution:     "agent execution failed",
	ErrCodeAgentTimeout:       "agent execution timed out",
	ErrCodeAgentUnavailable:   "no agent registered for role",
	ErrCodePlanValidation:     "execution plan failed validation",
	ErrCodeLLMResponse:        "model response could not be parsed",
	ErrCodeContextNotFound:    "task context not found",
	ErrCodeAppendConflict:     "concurrent append conflict",
	ErrCodeStoreClosed:        "event store closed",
	ErrCodeInterpretation:     "ui request missing required data",
	ErrCodeUnknownTemplate:    "unknown ui template type",
	ErrCodeTemplateNotFound:   "task template not found",
	ErrCodeInvalidInput:       "invalid input provided",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeCanceled:           "operation canceled",
	ErrCodeRateLimit:          "rate limit exceeded",
	ErrCodeUnavailable:        "service temporarily unavailable",
	ErrCodeInternal:           "internal error",
	ErrCodePanic:              "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
