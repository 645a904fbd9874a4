package safety

// Kind enumerates the action kinds the triage pipeline can recommend. The
// classification below is a closed decision: adding a kind means adding it to
// exactly one arm of Classify, and anything not listed is ClassUnknown.
type Kind string

const (
	KindCreateTicket       Kind = "create_ticket"
	KindCollectAccountInfo Kind = "collect_account_info"
	KindSuggestRunbook     Kind = "suggest_runbook"
	KindResetCredentials   Kind = "reset_credentials"
	KindDeleteAccount      Kind = "delete_account"
)

// UnknownActionType is recorded in the audit trail when a descriptor arrives
// with no type at all.
const UnknownActionType = "unknown"

// Class partitions action kinds by blast radius.
type Class int

const (
	// ClassUnknown: not a recognized kind. Routed to human approval, never
	// auto-rejected at the gate.
	ClassUnknown Class = iota
	// ClassNonDestructive: informational or additive actions, auto-approved.
	ClassNonDestructive
	// ClassDestructive: actions that change credentials or destroy state.
	// Require explicit confirmation by an authorized approver.
	ClassDestructive
)

// Classify maps an action type tag to its class.
func Classify(actionType string) Class {
	switch Kind(actionType) {
	case KindCreateTicket, KindCollectAccountInfo, KindSuggestRunbook:
		return ClassNonDestructive
	case KindResetCredentials, KindDeleteAccount:
		return ClassDestructive
	default:
		return ClassUnknown
	}
}

func (c Class) String() string {
	switch c {
	case ClassNonDestructive:
		return "non_destructive"
	case ClassDestructive:
		return "destructive"
	default:
		return "unknown"
	}
}
