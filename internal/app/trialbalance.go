/**
 * @description
 * Trial balance reconciler. Sums every transaction dated inside a
 * fiscal period into debit and credit totals by transaction type and
 * reports the variance. Because amounts are fixed-point decimals,
 * "balanced" means the variance is exactly zero, not within a float
 * epsilon. The computation is pure; the stability of a CLOSED period's
 * trial balance follows from the posting guard in the service layer,
 * which rejects transactions dated inside closed periods before any
 * mutation.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain: Transaction types and report DTOs.
 */

package app

import (
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// Reconcile computes the trial balance for one fiscal period from the
// transactions dated inside it. Inflows (share contributions, loan
// principal and interest repayments, fees) are credits; disbursements
// and withdrawals are debits.
func Reconcile(fp domain.FiscalPeriod, txs []domain.Transaction) domain.TrialBalanceSummary {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, tx := range txs {
		if !fp.Period.Contains(tx.Date) {
			continue
		}
		switch {
		case tx.Type.IsInflow():
			credits = credits.Add(tx.Amount)
		case tx.Type.IsOutflow():
			debits = debits.Add(tx.Amount)
		}
	}

	variance := debits.Sub(credits)
	return domain.TrialBalanceSummary{
		Period:       fp.Period.Label(),
		PeriodStatus: fp.Status,
		TotalDebits:  debits,
		TotalCredits: credits,
		Variance:     variance,
		Balanced:     variance.IsZero(),
	}
}
