// Package audit defines the audit record, its status lifecycle, and the store
// contract. Every action-authorization attempt leaves exactly one record; the
// record is the evidence trail a compliance review walks later.
package audit

import (
	"time"

	id "supportops/pkg/domain"
)

// Status is the lifecycle state of an audit record.
//
// Transitions are monotone:
//
//	requires_approval -> allowed | rejected
//	allowed           -> allowed (token attach) | executed | rejected
//	executed, rejected: terminal
type Status string

const (
	StatusAllowed          Status = "allowed"
	StatusRequiresApproval Status = "requires_approval"
	StatusExecuted         Status = "executed"
	StatusRejected         Status = "rejected"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusAllowed, StatusRequiresApproval, StatusExecuted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusRejected
}

// CanTransition reports whether moving from s to next is legal. The
// allowed -> allowed self-transition exists only to attach the audit token
// immediately after insertion.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusRequiresApproval:
		return next == StatusAllowed || next == StatusRejected
	case StatusAllowed:
		return next == StatusAllowed || next == StatusExecuted || next == StatusRejected
	default:
		return false
	}
}

// Record is one persisted authorization attempt. Only Status and AuditToken
// are mutable after insertion, and AuditToken is set at most once.
type Record struct {
	ID            id.AuditID     `json:"id"`
	RequestID     string         `json:"request_id"`
	UserID        string         `json:"user_id"`
	ActionType    string         `json:"action_type"`
	ActionPayload map[string]any `json:"action_payload"`
	ExecutorID    string         `json:"executor_id"`
	Status        Status         `json:"status"`
	// AuditToken is empty until the record first reaches StatusAllowed, then
	// immutable. It is the keyed digest proving this record was granted.
	AuditToken string    `json:"audit_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Clone returns a deep copy so store internals never alias caller memory.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ActionPayload != nil {
		cp.ActionPayload = make(map[string]any, len(r.ActionPayload))
		for k, v := range r.ActionPayload {
			cp.ActionPayload[k] = v
		}
	}
	return &cp
}
