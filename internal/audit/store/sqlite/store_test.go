package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"supportops/internal/audit"
	id "supportops/pkg/domain"
	"supportops/pkg/platform/sentinel"
)

type SQLiteStoreSuite struct {
	suite.Suite
	store *Store
}

func (s *SQLiteStoreSuite) SetupTest() {
	store, err := Open(":memory:")
	s.Require().NoError(err)
	s.store = store
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) insert(status audit.Status) id.AuditID {
	auditID, err := s.store.Insert(context.Background(), &audit.Record{
		RequestID:  "req-1",
		UserID:     "user-1",
		ActionType: "create_ticket",
		ActionPayload: map[string]any{
			"ticket_labels": []any{"billing", "payment-gateway"},
			"attempt":       float64(2),
		},
		ExecutorID: "system_bot",
		Status:     status,
	})
	s.Require().NoError(err)
	return auditID
}

func (s *SQLiteStoreSuite) TestRoundTrip() {
	auditID := s.insert(audit.StatusAllowed)

	rec, err := s.store.Get(context.Background(), auditID)
	s.Require().NoError(err)
	s.Equal(auditID, rec.ID)
	s.Equal("req-1", rec.RequestID)
	s.Equal("user-1", rec.UserID)
	s.Equal("create_ticket", rec.ActionType)
	s.Equal(audit.StatusAllowed, rec.Status)
	s.Empty(rec.AuditToken)
	s.False(rec.CreatedAt.IsZero())

	// JSON round-trips the payload as []any / float64.
	s.Equal([]any{"billing", "payment-gateway"}, rec.ActionPayload["ticket_labels"])
	s.Equal(float64(2), rec.ActionPayload["attempt"])
}

func (s *SQLiteStoreSuite) TestNilPayloadRoundTrip() {
	auditID, err := s.store.Insert(context.Background(), &audit.Record{
		Status: audit.StatusRequiresApproval,
	})
	s.Require().NoError(err)

	rec, err := s.store.Get(context.Background(), auditID)
	s.Require().NoError(err)
	s.NotNil(rec.ActionPayload)
	s.Empty(rec.ActionPayload)
}

func (s *SQLiteStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(context.Background(), id.NewAuditID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SQLiteStoreSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.Run("token attach then settle", func() {
		auditID := s.insert(audit.StatusAllowed)
		s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-1"))
		s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusExecuted, ""))

		rec, err := s.store.Get(ctx, auditID)
		s.Require().NoError(err)
		s.Equal(audit.StatusExecuted, rec.Status)
		s.Equal("tok-1", rec.AuditToken)
	})

	s.Run("token rewrite refused", func() {
		auditID := s.insert(audit.StatusAllowed)
		s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-1"))
		err := s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-2")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("terminal record stays terminal", func() {
		auditID := s.insert(audit.StatusAllowed)
		s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusRejected, ""))
		err := s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id", func() {
		err := s.store.UpdateStatus(ctx, id.NewAuditID(), audit.StatusExecuted, "")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("failed transition leaves record untouched", func() {
		auditID := s.insert(audit.StatusAllowed)
		s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-1"))
		s.Require().Error(s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-2"))

		rec, err := s.store.Get(ctx, auditID)
		s.Require().NoError(err)
		s.Equal(audit.StatusAllowed, rec.Status)
		s.Equal("tok-1", rec.AuditToken)
	})
}
