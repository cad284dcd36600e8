package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gianmatteo-arcana/engine-lever-sub006/agent"
	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/fluidui"
	"github.com/gianmatteo-arcana/engine-lever-sub006/planner"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
	"github.com/gianmatteo-arcana/engine-lever-sub006/template"
	"github.com/gianmatteo-arcana/engine-lever-sub006/tenant"
)

// runRound plans and executes waves until every phase completes or a
// terminal condition halts the round.
func (o *Orchestrator) runRound(ctx context.Context, tc *taskctx.TaskContext, tenantCtx tenant.Context, tmpl *template.TaskTemplate, round int) (taskctx.Status, error) {
	contextID := tc.ContextID
	logger := o.logger.WithContextID(contextID)

	plan, err := o.planner.Plan(ctx, tmpl, tc.CurrentState)
	if err != nil {
		_, appendErr := o.append(ctx, contextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpExecutionError,
			Data:      map[string]interface{}{"error": errorData(err)},
			Reasoning: "planning failed and no fallback plan was possible",
		})
		if appendErr != nil {
			return "", appendErr
		}
		return taskctx.StatusError, nil
	}

	reasoning := plan.Reasoning
	if reasoning == "" {
		reasoning = "plan derived from template goals and accumulated context"
	}
	_, err = o.append(ctx, contextID, taskctx.ContextEntry{
		Actor:     systemActor,
		Operation: taskctx.OpPlanCreated,
		Data:      map[string]interface{}{"round": round, "phases": phasesData(plan)},
		Reasoning: reasoning,
	})
	if err != nil {
		return "", err
	}
	logger.PlanCreated(round, len(plan.Phases))

	// input is what agents see. It starts as the projection at round start
	// and absorbs each wave's outputs, so a phase sees its prerequisites'
	// results within the same round, not just on the next one.
	input := make(map[string]interface{}, len(tc.CurrentState.Data))
	for k, v := range tc.CurrentState.Data {
		input[k] = v
	}

	completed := make(map[string]bool, len(plan.Phases))
	for len(completed) < len(plan.Phases) {
		wave := nextWave(plan, completed)
		if len(wave) == 0 {
			return "", errors.Internal("validated plan produced no runnable phase",
				errors.WithContextID(contextID))
		}

		for _, phase := range wave {
			_, err := o.append(ctx, contextID, taskctx.ContextEntry{
				Actor:     systemActor,
				Operation: taskctx.OpPhaseStarted,
				Data:      map[string]interface{}{"phaseId": phase.ID, "agents": stringsToAny(phase.RequiredAgents)},
				Reasoning: fmt.Sprintf("prerequisites of phase %q are satisfied", phase.ID),
			})
			if err != nil {
				return "", err
			}
			logger.PhaseStart(phase.ID, len(phase.RequiredAgents))
		}

		outcomes := make([]phaseOutcome, len(wave))
		g, gctx := errgroup.WithContext(ctx)
		for i, phase := range wave {
			i, phase := i, phase
			g.Go(func() error {
				outcomes[i] = o.executePhase(gctx, tc, tenantCtx, tmpl, phase, input)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}

		// Every outcome in the wave is recorded, even when one of them
		// halts the round: partial progress is never rolled back.
		halt := taskctx.Status("")
		for i, phase := range wave {
			status, err := o.recordPhaseOutcome(ctx, contextID, phase, outcomes[i])
			if err != nil {
				return "", err
			}
			halt = strongerHalt(halt, status)
		}
		if halt != "" {
			return halt, nil
		}
		for i, phase := range wave {
			completed[phase.ID] = true
			for k, v := range outcomes[i].outputs {
				input[k] = v
			}
		}
	}

	return taskctx.StatusComplete, nil
}

// nextWave selects the phases to run next, in plan order: all ready
// parallelizable phases together, otherwise one ready phase alone.
func nextWave(plan *planner.PhaseGraph, completed map[string]bool) []planner.Phase {
	var parallel []planner.Phase
	var solo *planner.Phase

	for _, phase := range plan.Phases {
		if completed[phase.ID] {
			continue
		}
		ready := true
		for _, pre := range phase.Prerequisites {
			if !completed[pre] {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		if phase.Parallelizable {
			parallel = append(parallel, phase)
		} else if solo == nil {
			phase := phase
			solo = &phase
		}
	}

	if len(parallel) > 0 {
		return parallel
	}
	if solo != nil {
		return []planner.Phase{*solo}
	}
	return nil
}

// phaseOutcome aggregates the results of one phase's agents.
type phaseOutcome struct {
	status     agent.Status
	outputs    map[string]interface{}
	reasonings []string
	uiRequests []fluidui.UIRequest
	failure    *agent.TaskError
	failedRole string
	duration   time.Duration
}

// executePhase dispatches all required agents concurrently and fans in
// their results. Fan-in precedence: error beats escalated beats
// pending_user_input beats complete.
func (o *Orchestrator) executePhase(ctx context.Context, tc *taskctx.TaskContext, tenantCtx tenant.Context, tmpl *template.TaskTemplate, phase planner.Phase, input map[string]interface{}) phaseOutcome {
	start := time.Now()
	span := o.tap.StartSpan(tc.ContextID, "phase."+phase.ID)
	ctx, otelSpan := o.tracer.StartPhaseSpan(ctx, phase.ID, phase.RequiredAgents)

	results := make([]agent.A2ATaskResult, len(phase.RequiredAgents))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range phase.RequiredAgents {
		i, role := i, role
		g.Go(func() error {
			results[i] = o.dispatch(gctx, tc, tenantCtx, tmpl, phase, role, input)
			return nil
		})
	}
	g.Wait()

	outcome := phaseOutcome{
		status:  agent.StatusComplete,
		outputs: make(map[string]interface{}),
	}
	for i, result := range results {
		for k, v := range result.Output {
			outcome.outputs[k] = v
		}
		if result.Reasoning != "" {
			outcome.reasonings = append(outcome.reasonings, result.Reasoning)
		}
		outcome.uiRequests = append(outcome.uiRequests, result.UIRequests...)

		switch result.Status {
		case agent.StatusError:
			outcome.status = agent.StatusError
			if outcome.failure == nil {
				outcome.failure = result.Error
				outcome.failedRole = phase.RequiredAgents[i]
			}
		case agent.StatusEscalated:
			if outcome.status != agent.StatusError {
				outcome.status = agent.StatusEscalated
			}
		case agent.StatusPendingUserInput:
			if outcome.status == agent.StatusComplete {
				outcome.status = agent.StatusPendingUserInput
			}
		}
	}
	outcome.duration = time.Since(start)

	span.SetAttr("status", string(outcome.status))
	span.End(nil)
	o.tracer.EndPhaseSpan(otelSpan, string(outcome.status), nil)
	return outcome
}

// dispatch runs one agent with fallback handling: an error result is
// matched against the template's fallback strategies, retried up to the
// retry bound, or escalated. Every applied fallback becomes an entry.
func (o *Orchestrator) dispatch(ctx context.Context, tc *taskctx.TaskContext, tenantCtx tenant.Context, tmpl *template.TaskTemplate, phase planner.Phase, role string, input map[string]interface{}) (result agent.A2ATaskResult) {
	logger := o.logger.WithContextID(tc.ContextID)

	attempts := 0
	ctx, otelSpan := o.tracer.StartAgentSpan(ctx, role)
	defer func() {
		o.tracer.EndAgentSpan(otelSpan, string(result.Status), attempts, nil)
	}()

	exec, ok := o.executorFor(role)
	if !ok {
		unavailable := errors.FromCode(errors.ErrCodeAgentUnavailable,
			errors.WithAgentRole(role), errors.WithContextID(tc.ContextID))
		return agent.ErrorResult(agent.A2ATask{TaskID: uuid.NewString(), Role: role},
			unavailable, "no executor registered for role")
	}

	retries := 0
	for {
		attempts++
		task := agent.A2ATask{
			TaskID:      uuid.NewString(),
			ContextID:   tc.ContextID,
			Role:        role,
			Instruction: instructionFor(tmpl, phase),
			Input:       input,
			Tenant:      tenantCtx,
		}

		start := time.Now()
		span := o.tap.StartSpan(tc.ContextID, "agent."+role)
		result, err := exec.ExecuteTask(ctx, task)
		if err != nil {
			// Contract executors convert failures to results; a raw error
			// here is a transport-level defect.
			result = agent.ErrorResult(task, err, "executor returned a raw error")
		}
		span.SetAttr("status", string(result.Status))
		span.End(err)
		logger.AgentResult(role, string(result.Status), time.Since(start), err)

		if result.Status != agent.StatusError || result.Error == nil {
			return result
		}

		strategy := tmpl.MatchFallback(result.Error.Code, result.Error.Message)
		if strategy == nil {
			return result
		}

		message := strategy.Message
		if message == "" {
			message = fmt.Sprintf("fallback %q matched error %s", strategy.Trigger, result.Error.Code)
		}
		_, appendErr := o.append(ctx, tc.ContextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpFallbackApplied,
			Data: map[string]interface{}{
				"phaseId":   phase.ID,
				"agentRole": role,
				"trigger":   strategy.Trigger,
				"action":    strategy.Action,
				"attempt":   retries + 1,
			},
			Reasoning: message,
		})
		if appendErr != nil {
			logger.Error("fallback entry append failed", map[string]interface{}{"error": appendErr.Error()})
		}

		switch strategy.Action {
		case template.ActionRetry:
			if retries < o.maxRetries {
				retries++
				continue
			}
			return result
		case template.ActionEscalate:
			result.Status = agent.StatusEscalated
			return result
		default:
			return result
		}
	}
}

// recordPhaseOutcome appends the entries for one finished phase and
// returns the halt status it forces on the round, if any.
func (o *Orchestrator) recordPhaseOutcome(ctx context.Context, contextID string, phase planner.Phase, outcome phaseOutcome) (taskctx.Status, error) {
	logger := o.logger.WithContextID(contextID)
	reasoning := strings.Join(outcome.reasonings, "; ")

	switch outcome.status {
	case agent.StatusComplete:
		if reasoning == "" {
			reasoning = fmt.Sprintf("all required agents of phase %q completed", phase.ID)
		}
		_, err := o.append(ctx, contextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpPhaseCompleted,
			Data: map[string]interface{}{
				"phaseId": phase.ID,
				"status":  string(agent.StatusComplete),
				"result":  outcome.outputs,
			},
			Reasoning: reasoning,
		})
		if err != nil {
			return "", err
		}
		logger.PhaseComplete(phase.ID, outcome.duration)
		return "", nil

	case agent.StatusPendingUserInput:
		for _, req := range outcome.uiRequests {
			element, err := o.interpreter.Interpret(req)
			if err != nil {
				// Fail closed: a bad UI request is recorded as an
				// interpretation error, never rendered as a guess.
				logger.Error("ui request rejected", map[string]interface{}{
					"request": req.RequestID, "error": err.Error(),
				})
				continue
			}
			element.Metadata["contextId"] = contextID
			_, appendErr := o.append(ctx, contextID, taskctx.ContextEntry{
				Actor:     systemActor,
				Operation: taskctx.OpUIRequestCreated,
				Data: map[string]interface{}{
					"phaseId":   phase.ID,
					"requestId": req.RequestID,
					"element":   elementData(element),
				},
				Reasoning: "agent requested user input",
				Trigger:   req.RequestID,
			})
			if appendErr != nil {
				return "", appendErr
			}
		}
		if reasoning == "" {
			reasoning = fmt.Sprintf("phase %q needs user input to continue", phase.ID)
		}
		_, err := o.append(ctx, contextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpRequestingUserInput,
			Data: map[string]interface{}{
				"phaseId": phase.ID,
				"result":  outcome.outputs,
			},
			Reasoning: reasoning,
		})
		if err != nil {
			return "", err
		}
		return taskctx.StatusNeedsInput, nil

	case agent.StatusEscalated:
		if reasoning == "" {
			reasoning = fmt.Sprintf("phase %q escalated for human review", phase.ID)
		}
		_, err := o.append(ctx, contextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpPhaseCompleted,
			Data: map[string]interface{}{
				"phaseId": phase.ID,
				"status":  string(agent.StatusEscalated),
				"result":  outcome.outputs,
			},
			Reasoning: reasoning,
		})
		if err != nil {
			return "", err
		}
		return taskctx.StatusEscalated, nil

	default: // agent.StatusError
		data := map[string]interface{}{"phaseId": phase.ID}
		if outcome.failure != nil {
			data["error"] = map[string]interface{}{
				"code":    outcome.failure.Code,
				"message": outcome.failure.Message,
			}
			data["agentRole"] = outcome.failedRole
		}
		_, err := o.append(ctx, contextID, taskctx.ContextEntry{
			Actor:     systemActor,
			Operation: taskctx.OpExecutionError,
			Data:      data,
			Reasoning: fmt.Sprintf("phase %q failed with no matching fallback strategy", phase.ID),
		})
		if err != nil {
			return "", err
		}
		return taskctx.StatusError, nil
	}
}

// strongerHalt keeps the most severe halt status across a wave.
func strongerHalt(current, candidate taskctx.Status) taskctx.Status {
	rank := map[taskctx.Status]int{
		"":                       0,
		taskctx.StatusNeedsInput: 1,
		taskctx.StatusEscalated:  2,
		taskctx.StatusError:      3,
	}
	if rank[candidate] > rank[current] {
		return candidate
	}
	return current
}

// instructionFor renders a goal-oriented instruction for a phase.
func instructionFor(tmpl *template.TaskTemplate, phase planner.Phase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase %q: %s.", phase.ID, phase.Name)

	byID := make(map[string]template.Goal)
	for _, g := range tmpl.Goals.Primary {
		byID[g.ID] = g
	}
	for _, g := range tmpl.Goals.Secondary {
		byID[g.ID] = g
	}
	for _, id := range phase.Goals {
		if g, ok := byID[id]; ok {
			fmt.Fprintf(&b, " Goal %s: %s.", g.ID, g.Description)
		}
	}
	return b.String()
}

// phasesData renders a plan's phases as a JSON-shaped value for the
// plan_created entry.
func phasesData(plan *planner.PhaseGraph) []interface{} {
	out := make([]interface{}, 0, len(plan.Phases))
	for _, p := range plan.Phases {
		out = append(out, map[string]interface{}{
			"id":             p.ID,
			"name":           p.Name,
			"requiredAgents": stringsToAny(p.RequiredAgents),
			"prerequisites":  stringsToAny(p.Prerequisites),
			"parallelizable": p.Parallelizable,
		})
	}
	return out
}

// elementData renders an interpreted element as a JSON object.
func elementData(element *fluidui.InterpretedUIElement) map[string]interface{} {
	data, err := json.Marshal(element)
	if err != nil {
		return map[string]interface{}{"id": element.ID, "component": element.Component}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{"id": element.ID, "component": element.Component}
	}
	return out
}

func errorData(err error) map[string]interface{} {
	out := map[string]interface{}{"message": err.Error()}
	if code := errors.Code(err); code != "" {
		out["code"] = string(code)
	}
	return out
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
