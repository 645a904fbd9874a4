package policy

import "time"

// AccountCacheTTL bounds how long cached account state may drive triage
// decisions. Keep it short: stale subscription data changes which remediation
// the decision engine recommends.
var AccountCacheTTL = 5 * time.Minute
