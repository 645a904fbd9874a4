package safety

import (
	"supportops/internal/audit"
	id "supportops/pkg/domain"
)

// ApproverRoleSupportAgent is the generic role attached to verdicts that need
// a human before the action may proceed.
const ApproverRoleSupportAgent = "human_support_agent"

// Action is the recommended-action descriptor produced by the decision
// engine (or supplied directly by a caller). The gate only interprets Type;
// everything else rides along into the audit trail and the executor.
type Action struct {
	Type          string         `json:"type"`
	Summary       string         `json:"summary"`
	Body          string         `json:"body"`
	ActionPayload map[string]any `json:"action_payload"`
}

// Verdict is the gate's decision for one attempt. It is ephemeral; the
// durable evidence lives in the audit record it references.
type Verdict struct {
	ActionAllowed     bool         `json:"action_allowed"`
	RequiredApprovals []string     `json:"required_approvals"`
	AuditID           id.AuditID   `json:"audit_id"`
	AuditToken        string       `json:"audit_token,omitempty"`
	Status            audit.Status `json:"status"`
}
