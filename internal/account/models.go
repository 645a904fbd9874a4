// Package account stores customer account profiles consulted during
// diagnostics.
package account

import "time"

// Profile is the account state the decision engine inspects. Metadata is
// free-form so product teams can attach context without schema changes.
type Profile struct {
	UserID             string         `json:"user_id"`
	Subscription       string         `json:"subscription,omitempty"`
	LastPaymentAttempt *time.Time     `json:"last_payment_attempt,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy so store internals never alias caller memory.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.LastPaymentAttempt != nil {
		t := *p.LastPaymentAttempt
		cp.LastPaymentAttempt = &t
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
