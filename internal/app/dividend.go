/**
 * @description
 * Dividend estimator. Projects a payout from accumulated shares at a
 * board-approved rate. Pure function: no state mutation, no
 * persistence; the rate is an external input, never derived here.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain: Rounding policy and report DTO.
 */

package app

import (
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// ProjectDividend projects the cooperative-wide dividend and,
// optionally, a single member's portion of it. The rate-to-amount
// conversion rounds half-up to two decimals per the ledger policy.
func ProjectDividend(totalShares decimal.Decimal, projectedRate decimal.Decimal, memberShares *decimal.Decimal) (domain.DividendEstimate, error) {
	if projectedRate.IsNegative() {
		return domain.DividendEstimate{}, domain.ErrInvalidAmount
	}

	est := domain.DividendEstimate{
		TotalShares:       totalShares,
		ProjectedRate:     projectedRate,
		EstimatedDividend: domain.ApplyRate(totalShares, projectedRate),
	}
	if memberShares != nil {
		memberDividend := domain.ApplyRate(*memberShares, projectedRate)
		est.MemberShares = memberShares
		est.MemberDividend = &memberDividend
	}
	return est, nil
}
