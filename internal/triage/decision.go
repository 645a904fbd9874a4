package triage

import (
	"fmt"
	"strings"

	"supportops/internal/diagnostics"
	"supportops/internal/safety"
)

// Runbook identifiers referenced by decisions.
const (
	RunbookPaymentRetry       = "payment_retry_flow_v1"
	RunbookCollectAccountInfo = "collect_account_info_v1"
	RunbookDegradedService    = "degraded_service_v1"
)

// Decision is the engine's recommendation for one diagnosed request.
type Decision struct {
	Action        safety.Action `json:"recommended_action"`
	RunbookID     string        `json:"runbook_id,omitempty"`
	Severity      string        `json:"severity"`
	Justification string        `json:"justification"`
}

// Engine derives a recommended action from diagnostics. Rules are applied in
// priority order; the first match wins:
//
//  1. payment gateway timeout  -> create_ticket, high
//  2. no subscription on file  -> collect_account_info, medium
//  3. degraded service health  -> suggest_runbook (degraded), medium
//  4. otherwise                -> suggest_runbook, low, no runbook
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Decide(snapshot *diagnostics.Snapshot) Decision {
	var (
		gateway      string
		health       string
		subscription string
		userID       string
		errMessage   string
	)
	if snapshot != nil && snapshot.Product != nil {
		gateway = strings.ToLower(snapshot.Product.PaymentGatewayStatus)
		health = strings.ToLower(snapshot.Product.ServiceHealth)
		errMessage = snapshot.Product.ErrorMessage
	}
	if snapshot != nil && snapshot.Account != nil {
		subscription = snapshot.Account.Subscription
		userID = snapshot.Account.UserID
	}

	switch {
	case gateway == diagnostics.GatewayTimeout:
		return Decision{
			Action: safety.Action{
				Type:    string(safety.KindCreateTicket),
				Summary: "Payment gateway timeout detected",
				Body: fmt.Sprintf(
					"Payment gateway returned timeout for user %s. Recommend creating support ticket and investigate gateway.",
					userID,
				),
				ActionPayload: map[string]any{
					"ticket_labels": []string{"billing", "payment-gateway", "high-severity"},
				},
			},
			RunbookID:     RunbookPaymentRetry,
			Severity:      SeverityHigh,
			Justification: "Payment gateway timeout takes precedence over all other signals.",
		}

	case subscription == "":
		return Decision{
			Action: safety.Action{
				Type:    string(safety.KindCollectAccountInfo),
				Summary: "Account missing subscription details",
				Body: fmt.Sprintf(
					"Account %s has no subscription on record. Request details from user.",
					userID,
				),
				ActionPayload: map[string]any{
					"request_fields": []string{"subscription", "last_payment_attempt"},
				},
			},
			RunbookID:     RunbookCollectAccountInfo,
			Severity:      SeverityMedium,
			Justification: "Subscription details are missing and must be collected before remediation.",
		}

	case health == diagnostics.HealthDegraded:
		return Decision{
			Action: safety.Action{
				Type:    string(safety.KindSuggestRunbook),
				Summary: "Service degraded; follow degraded-service runbook",
				Body:    fmt.Sprintf("Service reported degraded health: %s", errMessage),
				ActionPayload: map[string]any{
					"runbook": RunbookDegradedService,
				},
			},
			RunbookID:     RunbookDegradedService,
			Severity:      SeverityMedium,
			Justification: "Degraded service health maps to the standing degraded-service runbook.",
		}

	default:
		return Decision{
			Action: safety.Action{
				Type:          string(safety.KindSuggestRunbook),
				Summary:       "No problem detected",
				Body:          "System healthy. Suggest contacting user for more info if they persist.",
				ActionPayload: map[string]any{},
			},
			Severity:      SeverityLow,
			Justification: "No diagnostic signal crossed a remediation threshold.",
		}
	}
}
