// Package domain holds typed identifiers shared across subsystems. Wrapping
// uuid.UUID in distinct types keeps audit ids from being confused with other
// identifiers at compile time.
package domain

import "github.com/google/uuid"

// AuditID identifies one audit record. It is assigned by the audit store at
// insertion and never changes afterwards.
type AuditID uuid.UUID

// NewAuditID returns a fresh random audit id.
func NewAuditID() AuditID {
	return AuditID(uuid.New())
}

// ParseAuditID parses the canonical string form of an audit id.
func ParseAuditID(s string) (AuditID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AuditID{}, err
	}
	return AuditID(u), nil
}

func (a AuditID) String() string {
	return uuid.UUID(a).String()
}

// IsNil reports whether the id is the zero value.
func (a AuditID) IsNil() bool {
	return uuid.UUID(a) == uuid.Nil
}

// MarshalText renders the id in canonical UUID form for JSON payloads.
func (a AuditID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the canonical UUID form.
func (a *AuditID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*a = AuditID(u)
	return nil
}
