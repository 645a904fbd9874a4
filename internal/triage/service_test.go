package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"supportops/internal/account"
	"supportops/internal/audit"
	auditmemory "supportops/internal/audit/store/memory"
	"supportops/internal/diagnostics"
	"supportops/internal/executor"
	"supportops/internal/safety"
	"supportops/internal/ticket"
	dErrors "supportops/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store    *auditmemory.Store
	accounts *account.MemoryStore
	gate     *safety.Gate
	service  *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = auditmemory.New()
	s.accounts = account.NewMemoryStore()

	signer := safety.NewTokenSigner("test-secret")
	s.gate = safety.NewGate(s.store, signer, []string{"human_approver"})
	exec := executor.New(s.store, ticket.NewMemorySink("support_agent", nil))

	runner := diagnostics.NewRunner(s.accounts, diagnostics.NewSimulatedProbe(), nil)
	s.service = NewService(NewKeywordClassifier(), runner, NewEngine(), s.gate, exec, s.accounts)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) seedAccount(userID, subscription string) {
	s.Require().NoError(s.accounts.Upsert(context.Background(), &account.Profile{
		UserID:       userID,
		Subscription: subscription,
	}))
}

func (s *ServiceSuite) TestPaymentTimeoutEndToEnd() {
	s.seedAccount("user-42", "pro")

	outcome, err := s.service.Triage(context.Background(), &Request{
		RequestID: "REQ-TEST-001",
		UserID:    "user-42",
		Channel:   "email",
		Message:   "My payment keeps timing out",
		Metadata:  &Metadata{ProductVersion: "1.6.3"},
	})
	s.Require().NoError(err)

	s.Equal(IntentBillingIssue, outcome.Triage.Intent)
	s.Equal("create_ticket", outcome.Decision.Action.Type)
	s.Equal(SeverityHigh, outcome.Decision.Severity)

	s.Require().NotNil(outcome.Safety)
	s.True(outcome.Safety.ActionAllowed)
	s.NotEmpty(outcome.Safety.AuditToken)
	s.True(s.gate.VerifyToken(outcome.Safety))

	s.Require().NotNil(outcome.Execution)
	s.True(outcome.Execution.Executed)
	s.Equal(executor.ReasonOK, outcome.Execution.Reason)
	s.Require().NotNil(outcome.Execution.ExternalResponse)
	s.Equal("support_agent-101", outcome.Execution.ExternalResponse.TicketID)

	rec, err := s.store.Get(context.Background(), outcome.Safety.AuditID)
	s.Require().NoError(err)
	s.Equal(audit.StatusExecuted, rec.Status)
	s.Equal(outcome.Safety.AuditToken, rec.AuditToken)
}

func (s *ServiceSuite) TestUnknownUserCollectsAccountInfo() {
	outcome, err := s.service.Triage(context.Background(), &Request{
		RequestID: "REQ-TEST-002",
		UserID:    "ghost",
		Channel:   "chat",
		Message:   "General question",
	})
	s.Require().NoError(err)

	s.Equal("collect_account_info", outcome.Decision.Action.Type)
	s.True(outcome.Safety.ActionAllowed, "collect_account_info is non-destructive")

	// The sink only creates tickets, so this lands rejected as unsupported.
	s.False(outcome.Execution.Executed)
	s.Equal("unsupported_action_collect_account_info", outcome.Execution.Reason)
	s.Equal(audit.StatusRejected, outcome.Execution.Audit.Status)
}

func (s *ServiceSuite) TestHealthySubscriberGetsRunbook() {
	s.seedAccount("user-7", "basic")

	outcome, err := s.service.Triage(context.Background(), &Request{
		RequestID: "REQ-TEST-003",
		UserID:    "user-7",
		Channel:   "chat",
		Message:   "How do I export data?",
		Metadata:  &Metadata{ProductVersion: "2.1.0"},
	})
	s.Require().NoError(err)

	s.Equal("suggest_runbook", outcome.Decision.Action.Type)
	s.Equal(SeverityLow, outcome.Decision.Severity)
	s.Empty(outcome.Decision.RunbookID)
}

func (s *ServiceSuite) TestInvalidRequestRejected() {
	_, err := s.service.Triage(context.Background(), &Request{
		RequestID: "REQ-TEST-004",
		Channel:   "email",
		Message:   "missing user",
	})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestExecuteDestructiveRequiresConfirmedApprover() {
	action := safety.Action{Type: "reset_credentials", Summary: "Reset"}

	s.Run("unconfirmed attempt is held", func() {
		outcome, err := s.service.Execute(context.Background(), ExecuteInput{
			RequestID:  "REQ-TEST-005",
			UserID:     "user-42",
			Action:     action,
			ExecutorID: "human_approver",
			Confirm:    false,
		})
		s.Require().NoError(err)

		s.False(outcome.Safety.ActionAllowed)
		s.Equal(audit.StatusRequiresApproval, outcome.Safety.Status)
		s.Equal(executor.ReasonNotAllowed, outcome.Execution.Reason)
	})

	s.Run("confirmed approver is authorized", func() {
		outcome, err := s.service.Execute(context.Background(), ExecuteInput{
			RequestID:  "REQ-TEST-006",
			UserID:     "user-42",
			Action:     action,
			ExecutorID: "human_approver",
			Confirm:    true,
		})
		s.Require().NoError(err)

		s.True(outcome.Safety.ActionAllowed)
		s.NotEmpty(outcome.Safety.AuditToken)
		// No credential-reset sink exists, so execution settles rejected.
		s.Equal("unsupported_action_reset_credentials", outcome.Execution.Reason)
	})

	s.Run("missing identity is a bad request", func() {
		_, err := s.service.Execute(context.Background(), ExecuteInput{Action: action})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestExecuteDefaultsExecutorID() {
	outcome, err := s.service.Execute(context.Background(), ExecuteInput{
		RequestID: "REQ-TEST-007",
		UserID:    "user-42",
		Action:    safety.Action{Type: "delete_account"},
		Confirm:   true,
	})
	s.Require().NoError(err)

	rec, err := s.store.Get(context.Background(), outcome.Safety.AuditID)
	s.Require().NoError(err)
	s.Equal(DefaultExecutorID, rec.ExecutorID)
	s.False(outcome.Safety.ActionAllowed, "system_bot is not in the approver allow-list")
}
