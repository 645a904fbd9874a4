// Package executor performs authorized remediation actions and settles their
// audit records. The hard contract lives here: a failed external call must
// always leave a rejected terminal record, never an allowed or executed one,
// so the trail can never show an authorized-but-unaccounted-for action.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supportops/internal/audit"
	"supportops/internal/audit/publisher"
	"supportops/internal/safety"
	"supportops/internal/ticket"
	"supportops/pkg/platform/sentinel"
	"supportops/pkg/requestcontext"
)

// Result reasons with fixed wire values.
const (
	ReasonOK         = "ok"
	ReasonNotAllowed = "action_not_allowed"
)

// Executor consumes a gate verdict and, when permitted, performs the action
// against the sink. It makes at most one sink call and exactly one terminal
// audit transition per invocation; it never retries.
type Executor struct {
	store       audit.Store
	sink        ticket.Sink
	logger      *slog.Logger
	metrics     *Metrics
	events      *publisher.Publisher
	sinkTimeout time.Duration
	tracer      trace.Tracer
}

// Option configures the Executor.
type Option func(*Executor)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics sets the outcome counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithPublisher sets the decision-event publisher. Nil is fine.
func WithPublisher(p *publisher.Publisher) Option {
	return func(e *Executor) { e.events = p }
}

// WithSinkTimeout bounds each sink call. A timeout is handled like any other
// sink failure: the record ends rejected. Zero disables the bound.
func WithSinkTimeout(d time.Duration) Option {
	return func(e *Executor) { e.sinkTimeout = d }
}

func New(store audit.Store, sink ticket.Sink, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		sink:   sink,
		tracer: otel.Tracer("supportops/internal/executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input carries one execution attempt.
type Input struct {
	RequestID  string
	UserID     string
	Action     safety.Action
	Verdict    *safety.Verdict
	ExecutorID string
}

// Result distinguishes "not authorized" from "attempted and failed" from
// "succeeded"; callers must not conflate them.
type Result struct {
	Executed         bool           `json:"executed"`
	Reason           string         `json:"reason"`
	ExternalResponse *ticket.Ticket `json:"external_response"`
	Audit            *audit.Record  `json:"audit"`
}

// Execute runs one attempt. Audit storage faults propagate as errors; sink
// faults and unsupported kinds resolve locally into rejected results.
func (e *Executor) Execute(ctx context.Context, in Input) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "executor.execute")
	defer span.End()
	span.SetAttributes(attribute.String("action.type", in.Action.Type))

	if in.Verdict == nil || !in.Verdict.ActionAllowed {
		return e.blocked(ctx, in)
	}

	switch safety.Kind(in.Action.Type) {
	case safety.KindCreateTicket:
		return e.createTicket(ctx, in)
	default:
		return e.unsupported(ctx, in)
	}
}

// blocked reports a verdict that never authorized the action. No side effect
// and no audit transition happen here; the record keeps its gate-assigned
// status.
func (e *Executor) blocked(ctx context.Context, in Input) (*Result, error) {
	var rec *audit.Record
	if in.Verdict != nil && !in.Verdict.AuditID.IsNil() {
		var err error
		rec, err = e.store.Get(ctx, in.Verdict.AuditID)
		if errors.Is(err, sentinel.ErrNotFound) {
			rec = nil
		} else if err != nil {
			return nil, err
		}
	}

	e.metrics.IncExecution("blocked")
	return &Result{
		Executed:         false,
		Reason:           ReasonNotAllowed,
		ExternalResponse: nil,
		Audit:            rec,
	}, nil
}

func (e *Executor) createTicket(ctx context.Context, in Input) (*Result, error) {
	title := in.Action.Summary
	if title == "" {
		title = "Support ticket"
	}
	labels := ticketLabels(in.Action.ActionPayload)

	sinkCtx := ctx
	if e.sinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, e.sinkTimeout)
		defer cancel()
	}

	start := time.Now()
	tkt, sinkErr := e.sink.CreateTicket(sinkCtx, title, in.Action.Body, labels)
	e.metrics.ObserveSinkLatency(time.Since(start).Seconds())

	if sinkErr != nil {
		if e.logger != nil {
			e.logger.WarnContext(ctx, "external sink call failed",
				"request_id", in.RequestID,
				"audit_id", in.Verdict.AuditID.String(),
				"error", sinkErr,
			)
		}
		return e.settle(ctx, in, audit.StatusRejected, "external_failure", fmt.Sprintf("external_failure: %v", sinkErr), nil)
	}

	return e.settle(ctx, in, audit.StatusExecuted, "executed", ReasonOK, tkt)
}

func (e *Executor) unsupported(ctx context.Context, in Input) (*Result, error) {
	reason := fmt.Sprintf("unsupported_action_%s", in.Action.Type)
	return e.settle(ctx, in, audit.StatusRejected, "unsupported", reason, nil)
}

// settle applies the single terminal audit transition for this invocation and
// assembles the result. Audit storage faults propagate: a success the trail
// cannot record must not be reported as success.
func (e *Executor) settle(ctx context.Context, in Input, status audit.Status, outcome, reason string, tkt *ticket.Ticket) (*Result, error) {
	var rec *audit.Record
	if !in.Verdict.AuditID.IsNil() {
		if err := e.store.UpdateStatus(ctx, in.Verdict.AuditID, status, ""); err != nil {
			return nil, err
		}
		var err error
		rec, err = e.store.Get(ctx, in.Verdict.AuditID)
		if err != nil {
			return nil, err
		}
	}

	e.metrics.IncExecution(outcome)
	e.events.Emit(ctx, publisher.Event{
		Timestamp:  requestcontext.Now(ctx),
		RequestID:  in.RequestID,
		UserID:     in.UserID,
		AuditID:    in.Verdict.AuditID.String(),
		ActionType: in.Action.Type,
		ExecutorID: in.ExecutorID,
		Decision:   string(status),
		Reason:     reason,
	})

	executed := status == audit.StatusExecuted
	if e.logger != nil {
		e.logger.InfoContext(ctx, "action settled",
			"request_id", in.RequestID,
			"audit_id", in.Verdict.AuditID.String(),
			"status", string(status),
			"reason", reason,
		)
	}

	return &Result{
		Executed:         executed,
		Reason:           reason,
		ExternalResponse: tkt,
		Audit:            rec,
	}, nil
}

// ticketLabels pulls the "ticket_labels" entry out of the action payload.
// JSON decoding yields []any, so both representations are accepted.
func ticketLabels(payload map[string]any) []string {
	if payload == nil {
		return nil
	}
	switch v := payload["ticket_labels"].(type) {
	case []string:
		return v
	case []any:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				labels = append(labels, s)
			}
		}
		return labels
	default:
		return nil
	}
}
