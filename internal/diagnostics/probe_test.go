package diagnostics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportops/internal/account"
)

func TestSimulatedProbe(t *testing.T) {
	probe := NewSimulatedProbe()
	ctx := context.Background()

	t.Run("version 1.6 reports payment gateway timeout", func(t *testing.T) {
		report, err := probe.Run(ctx, "user-42", "1.6.3")
		require.NoError(t, err)

		assert.Equal(t, GatewayTimeout, report.PaymentGatewayStatus)
		assert.Equal(t, HealthDegraded, report.ServiceHealth)
		assert.Contains(t, report.ErrorCodes, "PAY_GATEWAY_TIMEOUT")
	})

	t.Run("beta builds report degraded service", func(t *testing.T) {
		report, err := probe.Run(ctx, "user-42", "2.0-BETA")
		require.NoError(t, err)

		assert.Equal(t, GatewaySlow, report.PaymentGatewayStatus)
		assert.Equal(t, HealthDegraded, report.ServiceHealth)
		assert.Contains(t, report.ErrorCodes, "SERVICE_HIGH_LATENCY")
	})

	t.Run("anything else is healthy", func(t *testing.T) {
		for _, version := range []string{"2.1.0", ""} {
			report, err := probe.Run(ctx, "user-42", version)
			require.NoError(t, err)

			assert.Equal(t, GatewayOK, report.PaymentGatewayStatus)
			assert.Equal(t, HealthHealthy, report.ServiceHealth)
			assert.Empty(t, report.ErrorCodes)
		}
	})
}

func TestRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("merges account and product state", func(t *testing.T) {
		accounts := account.NewMemoryStore()
		require.NoError(t, accounts.Upsert(ctx, &account.Profile{
			UserID:       "user-42",
			Subscription: "pro",
		}))

		runner := NewRunner(accounts, NewSimulatedProbe(), nil)
		snap, err := runner.Run(ctx, "user-42", "1.6")
		require.NoError(t, err)

		require.NotNil(t, snap.Account)
		assert.Equal(t, "pro", snap.Account.Subscription)
		assert.Equal(t, GatewayTimeout, snap.Product.PaymentGatewayStatus)
	})

	t.Run("missing account yields nil profile, not an error", func(t *testing.T) {
		runner := NewRunner(account.NewMemoryStore(), NewSimulatedProbe(), nil)
		snap, err := runner.Run(ctx, "ghost", "2.0")
		require.NoError(t, err)

		assert.Nil(t, snap.Account)
		require.NotNil(t, snap.Product)
	})
}
