package agent

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/gianmatteo-arcana/engine-lever-sub006/audit"
	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/tenant"
)

func allowedTask() A2ATask {
	return A2ATask{
		TaskID:      "task-1",
		ContextID:   "ctx-1",
		Role:        "business_discovery",
		Instruction: "find the business",
		Tenant: tenant.Context{
			TenantID:      "tenant-a",
			UserID:        "user-1",
			AllowedAgents: []string{"business_discovery"},
		},
	}
}

func completeLogic() Executor {
	return ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		return A2ATaskResult{
			TaskID:    task.TaskID,
			Status:    StatusComplete,
			Output:    map[string]interface{}{"found": true},
			Reasoning: "located the business in the registry",
		}, nil
	})
}

func TestTenantGuard_DeniesBeforeAnyEffect(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	called := false
	logic := ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		called = true
		return A2ATaskResult{Status: StatusComplete}, nil
	})

	exec := NewContractExecutor(logic, recorder, time.Second)

	task := allowedTask()
	task.Role = "payroll_export" // not in AllowedAgents
	result, err := exec.ExecuteTask(context.Background(), task)
	if err != nil {
		t.Fatalf("contract should return results, not errors: %v", err)
	}

	if called {
		t.Error("denied task must never reach agent logic")
	}
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Error.Code != string(errors.ErrCodeTenantAccessDenied) {
		t.Errorf("expected TENANT_ACCESS_DENIED, got %s", result.Error.Code)
	}

	denied := recorder.ByAction(audit.ActionAccessDenied)
	if len(denied) != 1 {
		t.Fatalf("denial must be audited, got %d entries", len(denied))
	}
	// Denied tasks never get start/completion entries.
	if len(recorder.Entries()) != 1 {
		t.Errorf("expected only the denial entry, got %d", len(recorder.Entries()))
	}
}

func TestContract_AuditsStartAndCompletion(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	exec := NewContractExecutor(completeLogic(), recorder, time.Second)

	result, err := exec.ExecuteTask(context.Background(), allowedTask())
	if err != nil {
		t.Fatalf("ExecuteTask failed: %v", err)
	}
	if result.Status != StatusComplete {
		t.Fatalf("expected complete, got %s", result.Status)
	}

	entries := recorder.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected start + completion entries, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionExecutionStarted {
		t.Errorf("first entry should be start, got %s", entries[0].Action)
	}
	if entries[1].Action != audit.ActionExecutionCompleted {
		t.Errorf("second entry should be completion, got %s", entries[1].Action)
	}
	if entries[1].Details["status"] != string(StatusComplete) {
		t.Errorf("completion entry should carry status, got %v", entries[1].Details)
	}
}

func TestTimeout_ProducesAgentTimeoutResult(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	slow := ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		<-ctx.Done()
		return A2ATaskResult{}, ctx.Err()
	})

	exec := NewContractExecutor(slow, recorder, 20*time.Millisecond)

	result, err := exec.ExecuteTask(context.Background(), allowedTask())
	if err != nil {
		t.Fatalf("timeout must surface as a result, not an error: %v", err)
	}
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Error.Code != string(errors.ErrCodeAgentTimeout) {
		t.Errorf("expected AGENT_TIMEOUT, got %s", result.Error.Code)
	}

	failed := recorder.ByAction(audit.ActionExecutionFailed)
	if len(failed) != 1 || failed[0].Details["error_code"] != string(errors.ErrCodeAgentTimeout) {
		t.Errorf("failure audit should carry the timeout code, got %+v", failed)
	}
}

func TestRecovery_ConvertsPanic(t *testing.T) {
	panicky := ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		panic("agent bug")
	})
	exec := NewContractExecutor(panicky, audit.NopRecorder{}, time.Second)

	result, err := exec.ExecuteTask(context.Background(), allowedTask())
	if err != nil {
		t.Fatalf("panic must surface as a result, not an error: %v", err)
	}
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Error.Code != string(errors.ErrCodePanic) {
		t.Errorf("expected PANIC, got %s", result.Error.Code)
	}
}

func TestRecovery_ConvertsRawErrors(t *testing.T) {
	failing := ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		return A2ATaskResult{}, stderrors.New("registry unreachable")
	})
	exec := NewContractExecutor(failing, audit.NopRecorder{}, time.Second)

	result, err := exec.ExecuteTask(context.Background(), allowedTask())
	if err != nil {
		t.Fatalf("raw errors must surface as results: %v", err)
	}
	if result.Error == nil || result.Error.Code != string(errors.ErrCodeAgentExecution) {
		t.Errorf("raw error should become AGENT_EXECUTION_ERROR, got %+v", result.Error)
	}
}

func TestRecovery_RejectsInvalidStatus(t *testing.T) {
	weird := ExecutorFunc(func(ctx context.Context, task A2ATask) (A2ATaskResult, error) {
		return A2ATaskResult{Status: "maybe_done"}, nil
	})
	exec := NewContractExecutor(weird, audit.NopRecorder{}, time.Second)

	result, _ := exec.ExecuteTask(context.Background(), allowedTask())
	if result.Status != StatusError {
		t.Errorf("invalid status must become an error result, got %s", result.Status)
	}
}

func TestToTaskError_PreservesStructuredCode(t *testing.T) {
	structured := errors.PlanValidation("cycle detected")
	taskErr := ToTaskError(structured)
	if taskErr.Code != string(errors.ErrCodePlanValidation) {
		t.Errorf("structured code should be preserved, got %s", taskErr.Code)
	}

	raw := ToTaskError(stderrors.New("boom"))
	if raw.Code != string(errors.ErrCodeAgentExecution) {
		t.Errorf("raw errors should default to AGENT_EXECUTION_ERROR, got %s", raw.Code)
	}
}
