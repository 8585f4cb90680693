package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/yasboss/storefront-backend/pkg/logger"
)

type userEmailLister interface {
	ListUserEmails(ctx context.Context) ([]string, error)
}

type balanceAuditor interface {
	RecomputeBalance(ctx context.Context, email string) (balance int, drifted bool, err error)
}

// LedgerConsistencyJobParams configure the balance audit job.
type LedgerConsistencyJobParams struct {
	Logger  *logger.Logger
	Users   userEmailLister
	Rewards balanceAuditor
}

// NewLedgerConsistencyJob builds the cron job that replays every user's
// point ledger and repairs cached balances that have drifted from it.
func NewLedgerConsistencyJob(params LedgerConsistencyJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lister required")
	}
	if params.Rewards == nil {
		return nil, fmt.Errorf("balance auditor required")
	}
	return &ledgerConsistencyJob{
		logg:    params.Logger,
		users:   params.Users,
		rewards: params.Rewards,
	}, nil
}

type ledgerConsistencyJob struct {
	logg    *logger.Logger
	users   userEmailLister
	rewards balanceAuditor
}

func (j *ledgerConsistencyJob) Name() string { return "ledger-consistency" }

func (j *ledgerConsistencyJob) Run(ctx context.Context) error {
	emails, err := j.users.ListUserEmails(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	repaired := 0
	var errs error
	for _, email := range emails {
		_, drifted, err := j.rewards.RecomputeBalance(ctx, email)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("recompute %s: %w", email, err))
			continue
		}
		if drifted {
			j.logg.Warn(j.logg.WithField(ctx, "user", email), "points balance drifted from ledger, repaired")
			repaired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"users": len(emails), "repaired": repaired})
	j.logg.Info(logCtx, "ledger consistency sweep complete")
	return errs
}
