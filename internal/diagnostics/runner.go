package diagnostics

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"supportops/internal/account"
	"supportops/pkg/platform/sentinel"
)

// Snapshot merges account state with the product report. Account is nil when
// the user has no profile on record; that absence is itself a signal the
// decision engine acts on.
type Snapshot struct {
	Account *account.Profile `json:"account_state"`
	Product *ProductReport   `json:"product_diagnostics"`
}

// Runner orchestrates the diagnostic tools for one triage request.
type Runner struct {
	accounts account.Store
	probe    Probe
	logger   *slog.Logger
}

func NewRunner(accounts account.Store, probe Probe, logger *slog.Logger) *Runner {
	return &Runner{accounts: accounts, probe: probe, logger: logger}
}

// Run fetches account state and product health concurrently. The two sources
// are independent; either failing (other than a missing account) fails the
// whole snapshot.
func (r *Runner) Run(ctx context.Context, userID, productVersion string) (*Snapshot, error) {
	var (
		profile *account.Profile
		report  *ProductReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.accounts.Get(gctx, userID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		rep, err := r.probe.Run(gctx, userID, productVersion)
		if err != nil {
			return err
		}
		report = rep
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "diagnostics collected",
			"user_id", userID,
			"gateway", report.PaymentGatewayStatus,
			"health", report.ServiceHealth,
			"has_account", profile != nil,
		)
	}

	return &Snapshot{Account: profile, Product: report}, nil
}
