//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"supportops/internal/audit"
	"supportops/internal/audit/store/postgres"
	id "supportops/pkg/domain"
	"supportops/pkg/platform/sentinel"
	"supportops/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audits"))
}

func (s *PostgresStoreSuite) insert(status audit.Status) id.AuditID {
	auditID, err := s.store.Insert(context.Background(), &audit.Record{
		RequestID:  "req-1",
		UserID:     "user-1",
		ActionType: "create_ticket",
		ActionPayload: map[string]any{
			"ticket_labels": []any{"billing", "payment-gateway"},
		},
		ExecutorID: "system_bot",
		Status:     status,
	})
	s.Require().NoError(err)
	return auditID
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	auditID := s.insert(audit.StatusAllowed)

	rec, err := s.store.Get(context.Background(), auditID)
	s.Require().NoError(err)
	s.Equal(auditID, rec.ID)
	s.Equal(audit.StatusAllowed, rec.Status)
	s.Equal([]any{"billing", "payment-gateway"}, rec.ActionPayload["ticket_labels"])
	s.False(rec.CreatedAt.IsZero())
}

func (s *PostgresStoreSuite) TestLifecycle() {
	ctx := context.Background()

	auditID := s.insert(audit.StatusAllowed)
	s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusAllowed, "tok-1"))
	s.Require().NoError(s.store.UpdateStatus(ctx, auditID, audit.StatusExecuted, ""))

	rec, err := s.store.Get(ctx, auditID)
	s.Require().NoError(err)
	s.Equal(audit.StatusExecuted, rec.Status)
	s.Equal("tok-1", rec.AuditToken)

	s.Require().ErrorIs(
		s.store.UpdateStatus(ctx, auditID, audit.StatusRejected, ""),
		sentinel.ErrInvalidState,
	)
}

func (s *PostgresStoreSuite) TestUnknownRecord() {
	_, err := s.store.Get(context.Background(), id.NewAuditID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.UpdateStatus(context.Background(), id.NewAuditID(), audit.StatusExecuted, "")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentSettlement verifies the row lock: many racing terminal
// transitions settle a record exactly once.
func (s *PostgresStoreSuite) TestConcurrentSettlement() {
	ctx := context.Background()
	auditID := s.insert(audit.StatusAllowed)

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.UpdateStatus(ctx, auditID, audit.StatusExecuted, ""); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one settlement should win")

	rec, err := s.store.Get(ctx, auditID)
	s.Require().NoError(err)
	s.Equal(audit.StatusExecuted, rec.Status)
}
