/**
 * @description
 * Overdue detection batch. Once per calendar day the job scans every
 * ACTIVE loan, computes days past due from its amortized state, and
 * flags newly overdue loans. The flag update is the only durable
 * effect; member notification is fire-and-forget and its failure never
 * rolls back the flag.
 *
 * Idempotency is layered:
 *  - a distributed day-marker (Redis, when configured), written only
 *    after a scan with zero failures, lets a second same-day
 *    invocation skip the whole batch while a retry after a partial
 *    failure still re-runs it;
 *  - the store's FlagLoanOverdue is a per-loan compare-and-swap, so
 *    even two concurrent batches cannot double-flag or double-notify.
 *
 * A single loan's computation error is logged and counted, never
 * aborting the cohort; the caller receives the failure count in the
 * batch result.
 *
 * @dependencies
 * - context, log, time: Standard Go libraries.
 * - internal/domain: Loan state and batch result DTO.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/coopstack/ledger-service/internal/domain"
)

const overdueJobName = "overdue_detection"

// RunOverdueDetection executes the daily overdue scan as of the given
// date. Safe to re-invoke: a repeat run for the same date produces the
// same final state and reports FlaggedNew == 0.
func (s *Service) RunOverdueDetection(ctx context.Context, asOf time.Time) (*domain.BatchResult, error) {
	day := truncateToDay(asOf)
	dateKey := day.Format("2006-01-02")
	result := &domain.BatchResult{AsOf: day}

	if s.marker != nil {
		done, err := s.marker.Completed(ctx, overdueJobName, dateKey)
		if err != nil {
			// Marker trouble degrades to per-loan CAS idempotency; the
			// batch itself must still run.
			log.Printf("level=warn component=overdue_job msg=\"day marker unavailable; relying on per-loan guard\" err=%v", err)
		} else if done {
			log.Printf("level=info component=overdue_job msg=\"already ran for date; skipping\" date=%s", dateKey)
			result.Skipped = true
			return result, nil
		}
	}

	loans, err := s.repo.FindActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	for i := range loans {
		loan := loans[i]
		if err := s.detectOverdue(ctx, &loan, day, result); err != nil {
			log.Printf("level=error component=overdue_job msg=\"loan processing failed\" loan=%s err=%v", loan.LoanNumber, err)
			result.Failures++
		}
		result.Processed++
	}

	// Only a clean scan marks the day done. A partial failure leaves
	// the marker unset so a same-day retry reaches the failed loans;
	// the per-loan compare-and-swap keeps the retry from re-flagging
	// or re-notifying the ones that succeeded.
	if s.marker != nil && result.Failures == 0 {
		if err := s.marker.MarkCompleted(ctx, overdueJobName, dateKey); err != nil {
			log.Printf("level=warn component=overdue_job msg=\"failed to record day marker\" date=%s err=%v", dateKey, err)
		}
	}

	log.Printf("level=info component=overdue_job msg=\"batch finished\" date=%s processed=%d flagged_new=%d failures=%d",
		dateKey, result.Processed, result.FlaggedNew, result.Failures)
	return result, nil
}

// detectOverdue handles one loan. Errors here are isolated by the
// caller so one corrupt record cannot block the cohort.
func (s *Service) detectOverdue(ctx context.Context, loan *domain.Loan, day time.Time, result *domain.BatchResult) error {
	txs, err := s.repo.ListLoanTransactions(ctx, loan.ID)
	if err != nil {
		return err
	}
	state, err := Amortize(loan, txs)
	if err != nil {
		return err
	}

	daysPastDue := state.DaysPastDue(day)
	if daysPastDue <= 0 {
		// Not overdue; clearing a stale flag is the amortization
		// engine's job on the next payment, not this batch's.
		return nil
	}

	if loan.Overdue {
		return s.repo.TouchOverdueCheck(ctx, loan.ID, daysPastDue, day)
	}

	flagged, err := s.repo.FlagLoanOverdue(ctx, loan.ID, daysPastDue, day)
	if err != nil {
		return err
	}
	if !flagged {
		// Another invocation won the compare-and-swap.
		return nil
	}
	result.FlaggedNew++

	if s.notifier != nil {
		if err := s.notifier.NotifyLoanOverdue(ctx, loan.MemberID, loan.LoanNumber, daysPastDue); err != nil {
			log.Printf("level=warn component=overdue_job msg=\"overdue notification failed\" loan=%s err=%v", loan.LoanNumber, err)
		}
	}
	return nil
}
