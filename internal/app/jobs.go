/**
 * @description
 * Scheduled job implementations for the ledger service.
 */
package app

import (
	"context"
	"log/slog"
	"time"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service *Service
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(service *Service, logger *slog.Logger) *Jobs {
	return &Jobs{
		service: service,
		logger:  logger,
	}
}

// DetectOverdueLoans runs the daily overdue scan over the active loan
// book as of the current day.
func (j *Jobs) DetectOverdueLoans() {
	j.logger.Info("starting overdue detection job")
	ctx := context.Background()

	result, err := j.service.RunOverdueDetection(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Error("overdue detection job failed", "error", err)
		return
	}
	if result.Skipped {
		j.logger.Info("overdue detection already ran today; skipping", "as_of", result.AsOf)
		return
	}

	j.logger.Info("overdue detection job finished",
		"as_of", result.AsOf,
		"processed", result.Processed,
		"flagged_new", result.FlaggedNew,
		"failures", result.Failures,
	)
}
