// Package diagnostics gathers the signals the decision engine turns into a
// recommended action: account state plus a product health report.
package diagnostics

import (
	"context"
	"strings"
	"time"

	"supportops/pkg/requestcontext"
)

// Payment gateway and service health states reported by probes.
const (
	GatewayOK      = "ok"
	GatewaySlow    = "slow"
	GatewayTimeout = "timeout"

	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// ProductReport is one product health snapshot.
type ProductReport struct {
	Timestamp            time.Time `json:"timestamp"`
	PaymentGatewayStatus string    `json:"payment_gateway_status"`
	ServiceHealth        string    `json:"service_health"`
	ErrorCodes           []string  `json:"error_codes"`
	ErrorMessage         string    `json:"error_message"`
}

// Probe runs a product diagnostic for a user and product version.
type Probe interface {
	Run(ctx context.Context, userID, productVersion string) (*ProductReport, error)
}

// SimulatedProbe produces deterministic reports keyed off the product
// version, standing in for the real fleet-telemetry integration:
//
//	version containing "1.6"  -> payment gateway timeout
//	version containing "beta" -> degraded service
//	otherwise                 -> healthy
type SimulatedProbe struct{}

func NewSimulatedProbe() *SimulatedProbe {
	return &SimulatedProbe{}
}

func (p *SimulatedProbe) Run(ctx context.Context, _ string, productVersion string) (*ProductReport, error) {
	now := requestcontext.Now(ctx).UTC()
	version := strings.ToLower(productVersion)

	switch {
	case strings.Contains(version, "1.6"):
		return &ProductReport{
			Timestamp:            now,
			PaymentGatewayStatus: GatewayTimeout,
			ServiceHealth:        HealthDegraded,
			ErrorCodes:           []string{"PAY_GATEWAY_TIMEOUT"},
			ErrorMessage:         "Payment gateway timeout for product version 1.6",
		}, nil
	case strings.Contains(version, "beta"):
		return &ProductReport{
			Timestamp:            now,
			PaymentGatewayStatus: GatewaySlow,
			ServiceHealth:        HealthDegraded,
			ErrorCodes:           []string{"SERVICE_HIGH_LATENCY"},
			ErrorMessage:         "Degraded performance for beta builds",
		}, nil
	default:
		return &ProductReport{
			Timestamp:            now,
			PaymentGatewayStatus: GatewayOK,
			ServiceHealth:        HealthHealthy,
			ErrorCodes:           []string{},
			ErrorMessage:         "All checks passed",
		}, nil
	}
}
