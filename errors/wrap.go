package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an OrchestrationError, its code, category, and provenance
// are preserved. Context deadline and cancellation errors are translated to
// their orchestration codes. Everything else becomes an internal error.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var coreErr *Error
	if errors.As(err, &coreErr) {
		wrapped := &Error{
			code:      coreErr.code,
			category:  coreErr.category,
			message:   message,
			cause:     err,
			metadata:  coreErr.Metadata(),
			retryable: coreErr.retryable,
			agentRole: coreErr.agentRole,
			contextID: coreErr.contextID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsError attempts to extract an OrchestrationError from an error chain.
// Returns nil if none is found.
func AsError(err error) OrchestrationError {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
// Non-orchestration errors default to not retryable.
func IsRetryable(err error) bool {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Retryable()
	}
	return false
}

// IsSecurity checks if the error is a security failure.
func IsSecurity(err error) bool {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.code.IsSecurity()
	}
	return false
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not an OrchestrationError.
func Code(err error) ErrorCode {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not an OrchestrationError.
func Category(err error) ErrorCategory {
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.category
	}
	return ""
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Join combines multiple errors into a single error.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// RecoverPanic converts a recovered panic value into an Error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprintf("%v", v)
	}
	return New(ErrCodePanic, message, WithMetadata("panic_value", fmt.Sprintf("%T", recovered)))
}
