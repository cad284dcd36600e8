package agent

import (
	"context"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/audit"
	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
)

// DefaultTimeout bounds one agent execution unless overridden.
const DefaultTimeout = 45 * time.Second

// Middleware wraps an Executor with one contract concern.
type Middleware func(Executor) Executor

// Chain applies middleware so that the first listed is outermost.
func Chain(exec Executor, mw ...Middleware) Executor {
	for i := len(mw) - 1; i >= 0; i-- {
		exec = mw[i](exec)
	}
	return exec
}

// NewContractExecutor wraps agent logic in the full execution contract, in
// its fixed order: tenant guard first (before any effect), then audit,
// then the timeout bound, then panic and error recovery closest to the
// logic. A zero timeout uses DefaultTimeout.
func NewContractExecutor(logic Executor, recorder audit.Recorder, timeout time.Duration) Executor {
	return Chain(logic,
		WithTenantGuard(recorder),
		WithAudit(recorder),
		WithTimeout(timeout),
		WithRecovery(),
	)
}

// WithTenantGuard rejects tasks whose role is not in the tenant's allowed
// list. The check happens before any other effect; denials are audited and
// returned as error results carrying TENANT_ACCESS_DENIED.
func WithTenantGuard(recorder audit.Recorder) Middleware {
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
			if !task.Tenant.Allows(task.Role) {
				recorder.Record(ctx, audit.Entry{
					TaskID:    task.TaskID,
					ContextID: task.ContextID,
					AgentRole: task.Role,
					Action:    audit.ActionAccessDenied,
					TenantID:  task.Tenant.TenantID,
					UserID:    task.Tenant.UserID,
				})
				err := errors.TenantAccessDenied(task.Role, errors.WithContextID(task.ContextID))
				return ErrorResult(task, err, "agent role is not permitted for this tenant"), nil
			}
			return next.ExecuteTask(ctx, task)
		})
	}
}

// WithAudit records execution start and completion with duration.
func WithAudit(recorder audit.Recorder) Middleware {
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
			recorder.Record(ctx, audit.Entry{
				TaskID:    task.TaskID,
				ContextID: task.ContextID,
				AgentRole: task.Role,
				Action:    audit.ActionExecutionStarted,
				TenantID:  task.Tenant.TenantID,
				UserID:    task.Tenant.UserID,
			})

			start := time.Now()
			result, err := next.ExecuteTask(ctx, task)
			duration := time.Since(start)

			entry := audit.Entry{
				TaskID:    task.TaskID,
				ContextID: task.ContextID,
				AgentRole: task.Role,
				Action:    audit.ActionExecutionCompleted,
				TenantID:  task.Tenant.TenantID,
				UserID:    task.Tenant.UserID,
				Duration:  duration,
				Details:   map[string]string{"status": string(result.Status)},
			}
			if err != nil || result.Status == StatusError {
				entry.Action = audit.ActionExecutionFailed
				if result.Error != nil {
					entry.Details["error_code"] = result.Error.Code
				}
			}
			recorder.Record(ctx, entry)

			return result, err
		})
	}
}

// WithTimeout bounds execution. An execution that exhausts the bound
// becomes an AGENT_TIMEOUT error result.
func WithTimeout(timeout time.Duration) Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := next.ExecuteTask(ctx, task)
			if ctx.Err() == context.DeadlineExceeded {
				timeoutErr := errors.FromCode(errors.ErrCodeAgentTimeout,
					errors.WithAgentRole(task.Role),
					errors.WithContextID(task.ContextID),
					errors.WithMetadata("timeout", timeout.String()))
				return ErrorResult(task, timeoutErr, "agent execution exceeded its time bound"), nil
			}
			return result, err
		})
	}
}

// WithRecovery converts panics and raw errors from agent logic into error
// results, so one misbehaving agent can never crash the orchestrator or
// leak an unstructured failure. It also rejects results with an invalid
// status.
func WithRecovery() Middleware {
	return func(next Executor) Executor {
		return ExecutorFunc(func(ctx context.Context, task A2ATask) (result A2ATaskResult, _ error) {
			defer func() {
				if r := recover(); r != nil {
					result = ErrorResult(task, errors.RecoverPanic(r), "agent logic panicked")
				}
			}()

			result, err := next.ExecuteTask(ctx, task)
			if err != nil {
				wrapped := errors.Wrap(err, "agent execution failed",
					errors.WithAgentRole(task.Role),
					errors.WithContextID(task.ContextID))
				if errors.Code(wrapped) == errors.ErrCodeInternal {
					// Unstructured agent failures surface under the code
					// fallback strategies match against.
					wrapped = errors.AgentExecution(task.Role, "agent execution failed",
						errors.WithCause(err),
						errors.WithContextID(task.ContextID))
				}
				return ErrorResult(task, wrapped, "agent logic returned an error"), nil
			}
			if !result.Status.Valid() {
				invalid := errors.AgentExecution(task.Role, "agent returned invalid status "+string(result.Status))
				return ErrorResult(task, invalid, "agent violated the result contract"), nil
			}
			if result.TaskID == "" {
				result.TaskID = task.TaskID
			}
			return result, nil
		})
	}
}
