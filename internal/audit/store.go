package audit

import (
	"context"

	id "supportops/pkg/domain"
)

// Store persists audit records. Implementations must assign a process-unique
// id at insertion, apply UpdateStatus atomically per record (a concurrent Get
// never observes a torn status/token pair), and round-trip ActionPayload
// through structured storage without loss.
//
// Implementations return sentinel.ErrNotFound for missing records and
// sentinel.ErrInvalidState for transitions that violate the Status lifecycle
// or attempt to overwrite an existing token. Storage faults surface as plain
// errors; callers treat them as fatal to the operation in flight.
type Store interface {
	// Insert creates a record and returns the assigned id. The store also
	// fixes CreatedAt. The passed record is not retained.
	Insert(ctx context.Context, rec *Record) (id.AuditID, error)

	// UpdateStatus transitions the record. An empty token leaves the stored
	// token untouched; a non-empty token may only accompany StatusAllowed and
	// only when no different token is already set.
	UpdateStatus(ctx context.Context, auditID id.AuditID, status Status, token string) error

	// Get returns a copy of the record.
	Get(ctx context.Context, auditID id.AuditID) (*Record, error)
}

// ValidateTransition is the shared lifecycle check used by all store
// implementations so backends cannot drift apart.
func ValidateTransition(current Status, currentToken string, next Status, token string) error {
	if !next.Valid() {
		return errInvalidStatus(next)
	}
	if !current.CanTransition(next) {
		return errIllegalTransition(current, next)
	}
	if token != "" {
		if next != StatusAllowed {
			return errTokenOutsideAllowed(next)
		}
		if currentToken != "" && currentToken != token {
			return errTokenRewrite()
		}
	}
	return nil
}
