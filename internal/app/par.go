/**
 * @description
 * Portfolio-at-risk classifier. Buckets every ACTIVE loan's outstanding
 * balance by days past due and derives the PAR ratio: the share of the
 * outstanding portfolio sitting in past-due buckets. Pure aggregation
 * over a snapshot; never mutates ledger state.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain: Bucket classification and report DTOs.
 */

package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// parRatioPlaces controls the precision of the reported PAR ratio.
const parRatioPlaces = 4

// LoanExposure is one classified loan: its outstanding balance and how
// many days past due it is as of the analysis date.
type LoanExposure struct {
	Outstanding decimal.Decimal
	DaysPastDue int
}

// ClassifyPortfolio aggregates loan exposures into PAR buckets. An
// empty portfolio yields a zero ratio, not a division error.
func ClassifyPortfolio(asOf time.Time, exposures []LoanExposure) domain.PARAnalysisSummary {
	totals := map[domain.PARBucket]*domain.PARBucketTotal{}
	for _, b := range domain.PARBuckets {
		totals[b] = &domain.PARBucketTotal{Bucket: b, Outstanding: decimal.Zero}
	}

	totalOutstanding := decimal.Zero
	pastDue := decimal.Zero
	for _, e := range exposures {
		bucket := domain.BucketForDays(e.DaysPastDue)
		totals[bucket].LoanCount++
		totals[bucket].Outstanding = totals[bucket].Outstanding.Add(e.Outstanding)
		totalOutstanding = totalOutstanding.Add(e.Outstanding)
		if bucket.IsPastDue() {
			pastDue = pastDue.Add(e.Outstanding)
		}
	}

	ratio := decimal.Zero
	if totalOutstanding.IsPositive() {
		ratio = pastDue.Div(totalOutstanding).Round(parRatioPlaces)
	}

	summary := domain.PARAnalysisSummary{
		AsOf:             asOf,
		TotalOutstanding: totalOutstanding,
		PastDueBalance:   pastDue,
		PARRatio:         ratio,
	}
	for _, b := range domain.PARBuckets {
		summary.Buckets = append(summary.Buckets, *totals[b])
	}
	return summary
}
