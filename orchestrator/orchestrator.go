package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gianmatteo-arcana/engine-lever-sub006/agent"
	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/fluidui"
	"github.com/gianmatteo-arcana/engine-lever-sub006/logging"
	"github.com/gianmatteo-arcana/engine-lever-sub006/notify"
	"github.com/gianmatteo-arcana/engine-lever-sub006/planner"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
	"github.com/gianmatteo-arcana/engine-lever-sub006/telemetry"
	"github.com/gianmatteo-arcana/engine-lever-sub006/template"
	"github.com/gianmatteo-arcana/engine-lever-sub006/tenant"
)

// DefaultMaxRetries bounds fallback retries per agent dispatch.
const DefaultMaxRetries = 3

// systemActor identifies orchestrator-authored entries.
var systemActor = taskctx.Actor{Type: taskctx.ActorSystem, ID: "orchestrator"}

// Orchestrator runs rounds of planned, parallel agent execution over task
// contexts.
type Orchestrator struct {
	store       taskctx.EventStore
	templates   *template.Registry
	planner     *planner.Planner
	interpreter *fluidui.Interpreter
	notifier    notify.Notifier
	tap         *telemetry.Tap
	tracer      *telemetry.Tracer
	logger      *logging.Logger

	maxRetries int

	mu        sync.RWMutex
	executors map[string]agent.Executor
	tenants   map[string]tenant.Context
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier streams context updates after every append.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithTap correlates performance spans to contexts.
func WithTap(tap *telemetry.Tap) Option {
	return func(o *Orchestrator) { o.tap = tap }
}

// WithTracer emits otel spans for rounds, phases, and agent dispatches.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithMaxRetries overrides the fallback retry bound.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.maxRetries = n }
}

// New creates an Orchestrator.
func New(store taskctx.EventStore, templates *template.Registry, p *planner.Planner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		templates:   templates,
		planner:     p,
		interpreter: fluidui.NewInterpreter(),
		tap:         telemetry.NewTap(nil),
		tracer:      telemetry.NewTracer(nil, "orchestrator", false),
		logger:      logging.New().WithComponent("orchestrator"),
		maxRetries:  DefaultMaxRetries,
		executors:   make(map[string]agent.Executor),
		tenants:     make(map[string]tenant.Context),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterExecutor binds an agent role to its executor. Executors are
// expected to already carry the execution contract (agent.NewContractExecutor).
func (o *Orchestrator) RegisterExecutor(role string, exec agent.Executor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executors[role] = exec
}

// AttachTenant binds runtime tenant credentials to a context. Credentials
// live only in memory; they are never written to the event log.
func (o *Orchestrator) AttachTenant(contextID string, tc tenant.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tenants[contextID] = tc
}

// CreateTaskRequest instantiates one workflow from a template.
type CreateTaskRequest struct {
	// ContextID is optional; a UUID is assigned when empty.
	ContextID string

	// TemplateID names the registered template to instantiate.
	TemplateID string

	// Tenant scopes all execution for this context.
	Tenant tenant.Context

	// InitialData seeds the context (business ID, user-provided hints).
	InitialData map[string]interface{}
}

// CreateTask instantiates a task context from a template, freezing the
// template into the context so later template edits cannot change this
// task's behavior.
func (o *Orchestrator) CreateTask(ctx context.Context, req CreateTaskRequest) (string, error) {
	tmpl, err := o.templates.Get(req.TemplateID)
	if err != nil {
		return "", err
	}
	snapshot, err := tmpl.Snapshot()
	if err != nil {
		return "", err
	}

	contextID := req.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	err = o.store.CreateContext(ctx, taskctx.TaskContext{
		ContextID:        contextID,
		TenantID:         req.Tenant.TenantID,
		TemplateID:       tmpl.ID,
		TemplateSnapshot: snapshot,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	o.AttachTenant(contextID, req.Tenant)

	entry := taskctx.ContextEntry{
		Actor:     systemActor,
		Operation: taskctx.OpTaskCreated,
		Data:      req.InitialData,
		Reasoning: fmt.Sprintf("task instantiated from template %q", tmpl.ID),
	}
	if _, err := o.append(ctx, contextID, entry); err != nil {
		return "", err
	}
	return contextID, nil
}

// Orchestrate runs one full round for a context: plan, execute waves until
// a terminal condition, record the round outcome. Calling it on a context
// whose goals are already satisfied does nothing. A round ending in
// needs_input, error, or escalated is a successful orchestration call; the
// outcome lives in the event log.
func (o *Orchestrator) Orchestrate(ctx context.Context, contextID string) error {
	tc, err := o.store.GetContext(ctx, contextID)
	if err != nil {
		return err
	}
	if tc.CurrentState.Status == taskctx.StatusComplete {
		o.logger.WithContextID(contextID).Info("goals already satisfied, nothing to orchestrate")
		return nil
	}

	tenantCtx, ok := o.tenantFor(contextID)
	if !ok {
		return errors.Internal("no tenant context attached", errors.WithContextID(contextID))
	}

	tmpl, err := templateFromSnapshot(tc)
	if err != nil {
		return err
	}

	round, err := o.roundNumber(ctx, contextID)
	if err != nil {
		return err
	}
	logger := o.logger.WithContextID(contextID)
	roundSpan := o.tap.StartSpan(contextID, "round")
	roundSpan.SetAttr("round", fmt.Sprintf("%d", round))
	ctx, otelSpan := o.tracer.StartRoundSpan(ctx, contextID, round)
	start := time.Now()

	status, err := o.runRound(ctx, tc, tenantCtx, tmpl, round)
	if err != nil {
		roundSpan.End(err)
		o.tracer.EndRoundSpan(otelSpan, "", err)
		return err
	}

	_, err = o.append(ctx, contextID, taskctx.ContextEntry{
		Actor:     systemActor,
		Operation: taskctx.OpRoundCompleted,
		Data:      map[string]interface{}{"round": round, "status": string(status)},
		Reasoning: fmt.Sprintf("round %d reached terminal status %s", round, status),
	})
	if err != nil {
		roundSpan.End(err)
		o.tracer.EndRoundSpan(otelSpan, string(status), err)
		return err
	}

	roundSpan.SetAttr("status", string(status))
	roundSpan.End(nil)
	o.tracer.EndRoundSpan(otelSpan, string(status), nil)
	logger.RoundComplete(round, string(status), time.Since(start))
	return nil
}

// SubmitUserInput records the user's response and immediately runs a new
// round. The new round re-plans from scratch over the now-larger context.
func (o *Orchestrator) SubmitUserInput(ctx context.Context, contextID string, data map[string]interface{}) error {
	if len(data) == 0 {
		return errors.InvalidInput("user input is empty", errors.WithContextID(contextID))
	}

	userID := "user"
	if tenantCtx, ok := o.tenantFor(contextID); ok && tenantCtx.UserID != "" {
		userID = tenantCtx.UserID
	}

	entry := taskctx.ContextEntry{
		Actor:     taskctx.Actor{Type: taskctx.ActorUser, ID: userID},
		Operation: taskctx.OpUserInput,
		Data:      data,
	}
	if _, err := o.append(ctx, contextID, entry); err != nil {
		return err
	}
	return o.Orchestrate(ctx, contextID)
}

// append stamps, appends, and publishes one entry.
func (o *Orchestrator) append(ctx context.Context, contextID string, entry taskctx.ContextEntry) (uint64, error) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	seq, err := o.store.Append(ctx, contextID, entry)
	if err != nil {
		return 0, err
	}

	if o.notifier != nil {
		err := o.notifier.Publish(notify.Update{
			ContextID:      contextID,
			SequenceNumber: seq,
			Operation:      entry.Operation,
		})
		if err != nil {
			o.logger.WithContextID(contextID).Warn("update publish failed",
				map[string]interface{}{"error": err.Error()})
		}
	}
	return seq, nil
}

func (o *Orchestrator) tenantFor(contextID string) (tenant.Context, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	tc, ok := o.tenants[contextID]
	return tc, ok
}

func (o *Orchestrator) executorFor(role string) (agent.Executor, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	exec, ok := o.executors[role]
	return exec, ok
}

// roundNumber counts completed rounds and returns the next one.
func (o *Orchestrator) roundNumber(ctx context.Context, contextID string) (int, error) {
	entries, err := o.store.Read(ctx, contextID, 0)
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range entries {
		if entries[i].Operation == taskctx.OpRoundCompleted {
			completed++
		}
	}
	return completed + 1, nil
}

// templateFromSnapshot rebuilds the frozen template from the context. The
// snapshot is authoritative: a task always runs under the template version
// it was created with.
func templateFromSnapshot(tc *taskctx.TaskContext) (*template.TaskTemplate, error) {
	if len(tc.TemplateSnapshot) == 0 {
		return nil, errors.Newf(errors.ErrCodeTemplateNotFound,
			"context %s has no template snapshot", tc.ContextID)
	}
	data, err := json.Marshal(tc.TemplateSnapshot)
	if err != nil {
		return nil, err
	}
	var tmpl template.TaskTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeTemplateNotFound,
			"template snapshot is unreadable", errors.WithContextID(tc.ContextID))
	}
	return &tmpl, nil
}
