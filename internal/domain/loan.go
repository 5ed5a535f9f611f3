/**
 * @description
 * Loan entity, its status state machine, and the portfolio-at-risk
 * bucket classification. The outstanding balance field on Loan is a
 * cached projection; the amortization engine recomputes it from the
 * transaction log and the store persists the result, so it is never
 * hand-edited.
 *
 * @dependencies
 * - time: Standard Go library.
 * - github.com/google/uuid: Identifiers.
 * - github.com/shopspring/decimal: Monetary amounts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType enumerates the cooperative's loan products.
type LoanType string

const (
	LoanEmergency   LoanType = "EMERGENCY"
	LoanProvident   LoanType = "PROVIDENT"
	LoanEducational LoanType = "EDUCATIONAL"
	LoanSpecial     LoanType = "SPECIAL"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending    LoanStatus = "PENDING"
	LoanActive     LoanStatus = "ACTIVE"
	LoanCompleted  LoanStatus = "COMPLETED"
	LoanDefaulted  LoanStatus = "DEFAULTED"
	LoanWrittenOff LoanStatus = "WRITTEN_OFF"
)

// CanTransition reports whether the state machine permits moving from
// the current status to next. Same-status sets are permitted no-ops so
// administrative retries stay idempotent.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case LoanPending:
		return next == LoanActive
	case LoanActive:
		return next == LoanCompleted || next == LoanDefaulted || next == LoanWrittenOff
	default:
		// COMPLETED, DEFAULTED, WRITTEN_OFF are terminal.
		return false
	}
}

// Loan is a member's borrowing. The overdue flag and days-past-due
// counter are orthogonal to Status: only ACTIVE loans carry them, and
// they are maintained by the overdue detection job.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	MemberID         uuid.UUID       `json:"member_id"`
	LoanNumber       string          `json:"loan_number"`
	Type             LoanType        `json:"type"`
	Principal        decimal.Decimal `json:"principal"`
	AnnualRate       decimal.Decimal `json:"annual_rate"` // e.g. 0.10 for 10% p.a.
	TermMonths       int             `json:"term_months"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	Status           LoanStatus      `json:"status"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	Overdue          bool            `json:"overdue"`
	DaysPastDue      int             `json:"days_past_due"`
	LastOverdueCheck *time.Time      `json:"last_overdue_check,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ApplyStatus advances the loan's status. Setting the current status
// again is a no-op; any transition the state machine forbids returns
// ErrInvalidTransition.
func (l *Loan) ApplyStatus(next LoanStatus) error {
	if l.Status == next {
		return nil
	}
	if !l.Status.CanTransition(next) {
		return ErrInvalidTransition
	}
	l.Status = next
	return nil
}

// PARBucket is a classification outcome derived at query time, never a
// stored entity.
type PARBucket string

const (
	BucketCurrent   PARBucket = "CURRENT"
	BucketDays1_30  PARBucket = "DAYS_1_30"
	BucketDays31_60 PARBucket = "DAYS_31_60"
	BucketDays61_90 PARBucket = "DAYS_61_90"
	BucketOver90    PARBucket = "DAYS_OVER_90"
)

// PARBuckets lists all buckets in ascending risk order.
var PARBuckets = []PARBucket{BucketCurrent, BucketDays1_30, BucketDays31_60, BucketDays61_90, BucketOver90}

// BucketForDays maps days-past-due to its risk bucket. The function is
// total over all integers: zero and negative values are CURRENT, and
// boundary values are inclusive on the lower bound (day 31 falls in
// 31-60, day 30 in 1-30).
func BucketForDays(daysPastDue int) PARBucket {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return BucketDays1_30
	case daysPastDue <= 60:
		return BucketDays31_60
	case daysPastDue <= 90:
		return BucketDays61_90
	default:
		return BucketOver90
	}
}

// IsPastDue reports whether the bucket counts toward the PAR numerator.
func (b PARBucket) IsPastDue() bool {
	return b != BucketCurrent
}
