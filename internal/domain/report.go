/**
 * @description
 * Read-only report DTOs handed off to the web layer. These are
 * snapshots assembled from ledger state by the app layer; they never
 * carry behavior and are safe to serialize as-is.
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

// ShareAccountView is the member-facing snapshot of a share account.
type ShareAccountView struct {
	AccountID         uuid.UUID       `json:"account_id"`
	AccumulatedShares decimal.Decimal `json:"accumulated_shares"`
	CurrentPeriodPaid bool            `json:"current_period_paid"`
	Transactions      []Transaction   `json:"transactions"`
}

// PaymentAllocation shows how one payment split across fees, interest,
// and principal.
type PaymentAllocation struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Date          time.Time       `json:"date"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	Fees          decimal.Decimal `json:"fees"`
	Interest      decimal.Decimal `json:"interest"`
	Principal     decimal.Decimal `json:"principal"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// LoanView is the display projection of one loan produced by the
// amortization engine.
type LoanView struct {
	LoanID             uuid.UUID           `json:"loan_id"`
	LoanNumber         string              `json:"loan_number"`
	Type               LoanType            `json:"type"`
	Status             LoanStatus          `json:"status"`
	Principal          decimal.Decimal     `json:"principal"`
	AnnualRate         decimal.Decimal     `json:"annual_rate"`
	TermMonths         int                 `json:"term_months"`
	Outstanding        decimal.Decimal     `json:"outstanding"`
	TotalPrincipalPaid decimal.Decimal     `json:"total_principal_paid"`
	TotalInterestPaid  decimal.Decimal     `json:"total_interest_paid"`
	TotalFeesPaid      decimal.Decimal     `json:"total_fees_paid"`
	Overdue            bool                `json:"overdue"`
	DaysPastDue        int                 `json:"days_past_due"`
	NextDueDate        *time.Time          `json:"next_due_date,omitempty"`
	Payments           []PaymentAllocation `json:"payments"`
}

// MemberFinancials is the composite per-member snapshot.
type MemberFinancials struct {
	MemberID     uuid.UUID         `json:"member_id"`
	MemberNumber string            `json:"member_number"`
	FullName     string            `json:"full_name"`
	ShareAccount *ShareAccountView `json:"share_account,omitempty"`
	Loans        []LoanView        `json:"loans"`
}

// PARBucketTotal is one row of the portfolio-at-risk aging report.
type PARBucketTotal struct {
	Bucket      PARBucket       `json:"bucket"`
	LoanCount   int             `json:"loan_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// PARAnalysisSummary aggregates portfolio risk as of a date.
type PARAnalysisSummary struct {
	AsOf             time.Time        `json:"as_of"`
	Buckets          []PARBucketTotal `json:"buckets"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
	PastDueBalance   decimal.Decimal  `json:"past_due_balance"`
	PARRatio         decimal.Decimal  `json:"par_ratio"`
}

// TrialBalanceSummary is the period-end reconciliation result.
type TrialBalanceSummary struct {
	Period       string          `json:"period"`
	PeriodStatus PeriodStatus    `json:"period_status"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Variance     decimal.Decimal `json:"variance"`
	Balanced     bool            `json:"balanced"`
}

// DividendEstimate projects a payout from accumulated shares at a
// board-approved rate.
type DividendEstimate struct {
	TotalShares       decimal.Decimal  `json:"total_shares"`
	ProjectedRate     decimal.Decimal  `json:"projected_rate"`
	EstimatedDividend decimal.Decimal  `json:"estimated_dividend"`
	MemberShares      *decimal.Decimal `json:"member_shares,omitempty"`
	MemberDividend    *decimal.Decimal `json:"member_dividend,omitempty"`
}

// BatchResult summarizes one overdue-detection run.
type BatchResult struct {
	AsOf       time.Time `json:"as_of"`
	Processed  int       `json:"processed"`
	FlaggedNew int       `json:"flagged_new"`
	Failures   int       `json:"failures"`
	Skipped    bool      `json:"skipped"` // true when the day-marker shows the run already happened
}
