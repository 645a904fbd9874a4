// Package memory provides the in-memory audit store used by tests and
// development mode. It honors the same lifecycle rules as the SQL backends.
package memory

import (
	"context"
	"sync"
	"time"

	"supportops/internal/audit"
	id "supportops/pkg/domain"
	"supportops/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	records map[id.AuditID]*audit.Record
}

func New() *Store {
	return &Store{records: make(map[id.AuditID]*audit.Record)}
}

func (s *Store) Insert(_ context.Context, rec *audit.Record) (id.AuditID, error) {
	if rec == nil {
		return id.AuditID{}, sentinel.ErrInvalidState
	}

	stored := rec.Clone()
	stored.ID = id.NewAuditID()
	stored.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) UpdateStatus(_ context.Context, auditID id.AuditID, status audit.Status, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[auditID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := audit.ValidateTransition(rec.Status, rec.AuditToken, status, token); err != nil {
		return err
	}

	rec.Status = status
	if token != "" {
		rec.AuditToken = token
	}
	return nil
}

func (s *Store) Get(_ context.Context, auditID id.AuditID) (*audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[auditID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Len reports the number of stored records. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
