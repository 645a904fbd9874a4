package triage

import (
	"context"
	"strings"
)

// Intents produced by classification.
const (
	IntentBillingIssue  = "billing_issue"
	IntentAccountAccess = "account_access"
	IntentProductIssue  = "product_issue"
	IntentGeneralQuery  = "general_query"
)

// Severity levels attached to classifications and decisions.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Classification is the structured read of a customer message.
type Classification struct {
	Intent      string  `json:"intent"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Classifier assigns an intent to a customer message.
type Classifier interface {
	Classify(ctx context.Context, message string) (Classification, error)
}

// KeywordClassifier is a deterministic rule classifier. It stands in for a
// model-backed classifier behind the same interface; rules are checked in
// priority order and the first match wins.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(_ context.Context, message string) (Classification, error) {
	m := strings.ToLower(message)

	if containsAny(m, "payment", "billing", "credit card", "refund") {
		return Classification{
			Intent:      IntentBillingIssue,
			Severity:    SeverityHigh,
			Confidence:  0.95,
			Explanation: "Contains keywords related to payment or billing.",
		}, nil
	}

	if containsAny(m, "password", "login", "sign in", "can't access") {
		return Classification{
			Intent:      IntentAccountAccess,
			Severity:    SeverityMedium,
			Confidence:  0.9,
			Explanation: "Mentions access/login problems.",
		}, nil
	}

	if containsAny(m, "bug", "feature", "not working", "error") {
		return Classification{
			Intent:      IntentProductIssue,
			Severity:    SeverityMedium,
			Confidence:  0.85,
			Explanation: "Mentions errors or non-working features.",
		}, nil
	}

	return Classification{
		Intent:      IntentGeneralQuery,
		Severity:    SeverityLow,
		Confidence:  0.6,
		Explanation: "Default fallback.",
	}, nil
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
