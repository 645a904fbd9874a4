// Package safety implements the authorization gate in front of remediation
// actions. Every evaluation writes an audit record before any verdict is
// returned: an authorization that cannot be recorded is never granted.
package safety

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supportops/internal/audit"
	"supportops/internal/audit/publisher"
	"supportops/pkg/requestcontext"
)

// Gate classifies proposed actions, applies the approval policy, and records
// the decision. It never deduplicates: each evaluation is a fresh decision
// event with its own audit record, so re-evaluation after a policy change is
// never silently merged with a stale decision.
type Gate struct {
	store     audit.Store
	signer    *TokenSigner
	approvers map[string]struct{}
	logger    *slog.Logger
	metrics   *Metrics
	events    *publisher.Publisher
	tracer    trace.Tracer
}

// Option configures the Gate.
type Option func(*Gate)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithMetrics sets the decision counters.
func WithMetrics(m *Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

// WithPublisher sets the decision-event publisher. Nil is fine.
func WithPublisher(p *publisher.Publisher) Option {
	return func(g *Gate) { g.events = p }
}

// NewGate constructs the gate. approvers is the allow-list of executor
// identities permitted to confirm destructive actions.
func NewGate(store audit.Store, signer *TokenSigner, approvers []string, opts ...Option) *Gate {
	g := &Gate{
		store:     store,
		signer:    signer,
		approvers: make(map[string]struct{}, len(approvers)),
		tracer:    otel.Tracer("supportops/internal/safety"),
	}
	for _, a := range approvers {
		g.approvers[a] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EvaluateInput carries one authorization attempt.
type EvaluateInput struct {
	RequestID  string
	UserID     string
	Action     Action
	ExecutorID string
	// Confirm signals the caller already obtained human confirmation.
	// Confirmation alone never grants: the executor must also be in the
	// approver allow-list.
	Confirm bool
}

// Evaluate applies the policy and persists the decision. Storage faults
// propagate unwrapped in meaning: a verdict is only returned when its audit
// record is durably recorded.
func (g *Gate) Evaluate(ctx context.Context, in EvaluateInput) (*Verdict, error) {
	ctx, span := g.tracer.Start(ctx, "safety.evaluate")
	defer span.End()

	actionType := in.Action.Type
	class := Classify(actionType)
	span.SetAttributes(
		attribute.String("action.type", actionType),
		attribute.String("action.class", class.String()),
	)

	var (
		verdict *Verdict
		err     error
	)
	switch class {
	case ClassNonDestructive:
		verdict, err = g.approve(ctx, in, actionType)
	case ClassDestructive:
		if in.Confirm && g.isApprover(in.ExecutorID) {
			verdict, err = g.approve(ctx, in, actionType)
		} else {
			verdict, err = g.hold(ctx, in, actionType)
		}
	default:
		if actionType == "" {
			actionType = UnknownActionType
		}
		verdict, err = g.hold(ctx, in, actionType)
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", string(verdict.Status)))
	g.metrics.IncEvaluation(string(verdict.Status), class.String())
	g.events.Emit(ctx, publisher.Event{
		Timestamp:  requestcontext.Now(ctx),
		RequestID:  in.RequestID,
		UserID:     in.UserID,
		AuditID:    verdict.AuditID.String(),
		ActionType: actionType,
		ExecutorID: in.ExecutorID,
		Decision:   string(verdict.Status),
	})
	return verdict, nil
}

// approve inserts an allowed record, derives its token, and attaches it.
func (g *Gate) approve(ctx context.Context, in EvaluateInput, actionType string) (*Verdict, error) {
	auditID, err := g.store.Insert(ctx, &audit.Record{
		RequestID:     in.RequestID,
		UserID:        in.UserID,
		ActionType:    actionType,
		ActionPayload: in.Action.ActionPayload,
		ExecutorID:    in.ExecutorID,
		Status:        audit.StatusAllowed,
	})
	if err != nil {
		return nil, err
	}

	token := g.signer.TokenFor(auditID)
	if err := g.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, token); err != nil {
		return nil, err
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "action allowed",
			"request_id", in.RequestID,
			"action_type", actionType,
			"executor_id", in.ExecutorID,
			"audit_id", auditID.String(),
		)
	}

	return &Verdict{
		ActionAllowed:     true,
		RequiredApprovals: []string{},
		AuditID:           auditID,
		AuditToken:        token,
		Status:            audit.StatusAllowed,
	}, nil
}

// hold inserts a requires_approval record with no token.
func (g *Gate) hold(ctx context.Context, in EvaluateInput, actionType string) (*Verdict, error) {
	auditID, err := g.store.Insert(ctx, &audit.Record{
		RequestID:     in.RequestID,
		UserID:        in.UserID,
		ActionType:    actionType,
		ActionPayload: in.Action.ActionPayload,
		ExecutorID:    in.ExecutorID,
		Status:        audit.StatusRequiresApproval,
	})
	if err != nil {
		return nil, err
	}

	if g.logger != nil {
		g.logger.InfoContext(ctx, "action requires approval",
			"request_id", in.RequestID,
			"action_type", actionType,
			"executor_id", in.ExecutorID,
			"audit_id", auditID.String(),
		)
	}

	return &Verdict{
		ActionAllowed:     false,
		RequiredApprovals: []string{ApproverRoleSupportAgent},
		AuditID:           auditID,
		AuditToken:        "",
		Status:            audit.StatusRequiresApproval,
	}, nil
}

func (g *Gate) isApprover(executorID string) bool {
	_, ok := g.approvers[executorID]
	return ok
}

// VerifyToken checks that a presented token matches the digest for the given
// audit record id. Used by compliance tooling to validate trail integrity.
func (g *Gate) VerifyToken(v *Verdict) bool {
	if v == nil || v.AuditToken == "" {
		return false
	}
	return g.signer.Verify(v.AuditID, v.AuditToken)
}
