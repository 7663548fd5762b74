package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mini-bank/internal/domain/account"
)

// ReconcileOwnerCountsJob recomputes accounts.number_of_owners from the
// customers actually attached to each account. Admission keeps the counter
// in step transactionally, so the job only repairs drift introduced by
// out-of-band writes.
type ReconcileOwnerCountsJob struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

func NewReconcileOwnerCountsJob(accountRepo account.Repository, logger *slog.Logger) *ReconcileOwnerCountsJob {
	if accountRepo == nil || logger == nil {
		panic("ReconcileOwnerCountsJob dependencies cannot be nil")
	}
	return &ReconcileOwnerCountsJob{
		accountRepo: accountRepo,
		logger:      logger.With("job", "ReconcileOwnerCounts"),
	}
}

func (j *ReconcileOwnerCountsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting account owner count reconciliation job.")

	corrected, err := j.accountRepo.ReconcileOwnerCounts(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to reconcile owner counts, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot reconcile owner counts: %w", err)
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int64("accounts_corrected", corrected),
	)
	if corrected > 0 {
		summaryLog.WarnContext(ctx, "Owner count reconciliation corrected drifted accounts.")
	} else {
		summaryLog.InfoContext(ctx, "Owner count reconciliation job finished, no drift found.")
	}
	return nil
}
