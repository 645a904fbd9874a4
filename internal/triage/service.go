package triage

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supportops/internal/account"
	"supportops/internal/diagnostics"
	"supportops/internal/executor"
	"supportops/internal/platform/metrics"
	"supportops/internal/safety"
	dErrors "supportops/pkg/domain-errors"
)

// DefaultExecutorID identifies the automated pipeline when no human executor
// is named on a request.
const DefaultExecutorID = "system_bot"

// Outcome is the full result of one triage run.
type Outcome struct {
	RequestID   string                `json:"request_id"`
	UserID      string                `json:"user_id"`
	Triage      Classification       `json:"triage"`
	Diagnostics *diagnostics.Snapshot `json:"diagnostics"`
	Decision    Decision              `json:"decision"`
	Safety      *safety.Verdict       `json:"safety"`
	Execution   *executor.Result      `json:"execution"`
}

// Service runs the triage pipeline: classify, diagnose, decide, authorize,
// execute. Each stage's output feeds the next; the authorization and audit
// semantics live in the safety and executor packages.
type Service struct {
	classifier Classifier
	runner     *diagnostics.Runner
	engine     *Engine
	gate       *safety.Gate
	executor   *executor.Executor
	accounts   account.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the request counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	classifier Classifier,
	runner *diagnostics.Runner,
	engine *Engine,
	gate *safety.Gate,
	exec *executor.Executor,
	accounts account.Store,
	opts ...Option,
) *Service {
	s := &Service{
		classifier: classifier,
		runner:     runner,
		engine:     engine,
		gate:       gate,
		executor:   exec,
		accounts:   accounts,
		tracer:     otel.Tracer("supportops/internal/triage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Triage runs the full pipeline for one request. The automated path never
// confirms destructive actions: anything destructive the engine might ever
// recommend would land in requires_approval for a human.
func (s *Service) Triage(ctx context.Context, req *Request) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "triage.run")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("request.channel", req.Channel),
	)
	s.metrics.IncTriageRequests()

	classification, err := s.classifier.Classify(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	var productVersion string
	if req.Metadata != nil {
		productVersion = req.Metadata.ProductVersion
	}

	snapshot, err := s.runner.Run(ctx, req.UserID, productVersion)
	if err != nil {
		return nil, err
	}

	decision := s.engine.Decide(snapshot)

	verdict, err := s.gate.Evaluate(ctx, safety.EvaluateInput{
		RequestID:  req.RequestID,
		UserID:     req.UserID,
		Action:     decision.Action,
		ExecutorID: DefaultExecutorID,
		Confirm:    false,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.executor.Execute(ctx, executor.Input{
		RequestID:  req.RequestID,
		UserID:     req.UserID,
		Action:     decision.Action,
		Verdict:    verdict,
		ExecutorID: DefaultExecutorID,
	})
	if err != nil {
		return nil, err
	}

	s.refreshAccount(ctx, snapshot)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "triage completed",
			"request_id", req.RequestID,
			"user_id", req.UserID,
			"intent", classification.Intent,
			"action_type", decision.Action.Type,
			"status", string(verdict.Status),
			"executed", result.Executed,
		)
	}

	return &Outcome{
		RequestID:   req.RequestID,
		UserID:      req.UserID,
		Triage:      classification,
		Diagnostics: snapshot,
		Decision:    decision,
		Safety:      verdict,
		Execution:   result,
	}, nil
}

// ExecuteInput is a direct execution attempt against the gate, bypassing
// classification and diagnostics. Used by operators replaying or confirming
// actions.
type ExecuteInput struct {
	RequestID  string        `json:"request_id"`
	UserID     string        `json:"user_id"`
	Action     safety.Action `json:"recommended_action"`
	ExecutorID string        `json:"executor_id"`
	Confirm    bool          `json:"confirm"`
}

// ExecuteOutcome pairs the verdict with the execution result.
type ExecuteOutcome struct {
	Safety    *safety.Verdict  `json:"safety"`
	Execution *executor.Result `json:"execution"`
}

// Execute gates and runs a caller-supplied action. Confirmation and executor
// identity come from the caller; the gate decides whether they suffice.
func (s *Service) Execute(ctx context.Context, in ExecuteInput) (*ExecuteOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "triage.execute")
	defer span.End()

	if in.RequestID == "" || in.UserID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request_id and user_id are required")
	}
	executorID := in.ExecutorID
	if executorID == "" {
		executorID = DefaultExecutorID
	}

	verdict, err := s.gate.Evaluate(ctx, safety.EvaluateInput{
		RequestID:  in.RequestID,
		UserID:     in.UserID,
		Action:     in.Action,
		ExecutorID: executorID,
		Confirm:    in.Confirm,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.executor.Execute(ctx, executor.Input{
		RequestID:  in.RequestID,
		UserID:     in.UserID,
		Action:     in.Action,
		Verdict:    verdict,
		ExecutorID: executorID,
	})
	if err != nil {
		return nil, err
	}

	return &ExecuteOutcome{Safety: verdict, Execution: result}, nil
}

// refreshAccount writes observed account state back so later requests see it.
// Best effort: a store fault here must not fail a completed triage.
func (s *Service) refreshAccount(ctx context.Context, snapshot *diagnostics.Snapshot) {
	if s.accounts == nil || snapshot == nil || snapshot.Account == nil || snapshot.Account.UserID == "" {
		return
	}
	if err := s.accounts.Upsert(ctx, snapshot.Account); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "account refresh failed",
			"user_id", snapshot.Account.UserID,
			"error", err,
		)
	}
}
