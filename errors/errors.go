package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrchestrationError is the interface for all structured errors in the
// orchestration core. It extends the standard error interface with the
// context needed for fallback-strategy matching and retry decisions.
type OrchestrationError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// Metadata returns additional context as key-value pairs.
	Metadata() map[string]string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of OrchestrationError.
type Error struct {
	code      ErrorCode
	category  ErrorCategory
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool // nil means use default based on category
	timestamp time.Time
	agentRole string // executing agent role, if applicable
	contextID string // related task context, if applicable
}

// Ensure Error implements OrchestrationError and json.Marshaler/Unmarshaler.
var (
	_ OrchestrationError = (*Error)(nil)
	_ json.Marshaler     = (*Error)(nil)
	_ json.Unmarshaler   = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns the error metadata.
func (e *Error) Metadata() map[string]string {
	if e.metadata == nil {
		return make(map[string]string)
	}
	// Return a copy to prevent modification
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// AgentRole returns the executing agent role, if set.
func (e *Error) AgentRole() string {
	return e.agentRole
}

// ContextID returns the related task context ID, if set.
func (e *Error) ContextID() string {
	return e.contextID
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code      ErrorCode         `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Message   string            `json:"message"`
	Cause     string            `json:"cause,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Retryable bool              `json:"retryable"`
	Timestamp string            `json:"timestamp,omitempty"`
	AgentRole string            `json:"agent_role,omitempty"`
	ContextID string            `json:"context_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:      e.code,
		Category:  e.category,
		Message:   e.message,
		Metadata:  e.metadata,
		Retryable: e.Retryable(),
		AgentRole: e.agentRole,
		ContextID: e.contextID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.metadata = j.Metadata
	e.agentRole = j.AgentRole
	e.contextID = j.ContextID
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithAgentRole sets the executing agent role.
func WithAgentRole(role string) Option {
	return func(e *Error) {
		e.agentRole = role
	}
}

// WithContextID sets the related task context ID.
func WithContextID(id string) Option {
	return func(e *Error) {
		e.contextID = id
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// TenantAccessDenied creates the security error returned when an agent role
// is not listed in the tenant's allowedAgents. The message deliberately
// carries only the role, never tenant data.
func TenantAccessDenied(role string, opts ...Option) *Error {
	opts = append([]Option{WithAgentRole(role)}, opts...)
	return New(ErrCodeTenantAccessDenied, fmt.Sprintf("agent role %q not permitted for tenant", role), opts...)
}

// AgentExecution creates a generic agent execution error.
func AgentExecution(role, message string, opts ...Option) *Error {
	opts = append([]Option{WithAgentRole(role)}, opts...)
	return New(ErrCodeAgentExecution, message, opts...)
}

// PlanValidation creates a plan validation error.
func PlanValidation(message string, opts ...Option) *Error {
	return New(ErrCodePlanValidation, message, opts...)
}

// LLMResponse creates an error for unparseable model output.
func LLMResponse(message string, opts ...Option) *Error {
	return New(ErrCodeLLMResponse, message, opts...)
}

// Interpretation creates a UI interpretation error.
func Interpretation(message string, opts ...Option) *Error {
	return New(ErrCodeInterpretation, message, opts...)
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(ErrCodeTimeout, message, opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(ErrCodeInternal, message, opts...)
}
