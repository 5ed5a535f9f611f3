/**
 * @description
 * Loan amortization engine. Two responsibilities:
 *
 *  1. BuildSchedule computes the fixed-payment installment schedule for
 *     a loan (payment = P*r*(1+r)^n / ((1+r)^n - 1)), with the final
 *     installment absorbing rounding drift so the balance lands on
 *     exactly zero.
 *
 *  2. Amortize folds a loan's recorded transactions, strictly
 *     chronologically, into derived state: outstanding balance,
 *     principal/interest/fee totals, a per-payment allocation view, and
 *     the next unpaid due date. Re-running the fold over the same
 *     transaction sequence always yields the same result.
 *
 * Payments are allocated in fixed precedence: fees first, then the
 * period's unpaid interest (outstanding at period start x annual/12,
 * rounded half-up at conversion, collected at most once per period),
 * then principal. Any remainder prepays principal; there are no
 * negative allocations and overpayment is not an error. Cumulative
 * principal exceeding the original principal is a data-corruption
 * guard that halts processing of that loan.
 *
 * @dependencies
 * - math, sort, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain: Loan, Transaction, rounding policy.
 */

package app

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/domain"
)

// ScheduleEntry is one installment of a loan's amortization schedule.
type ScheduleEntry struct {
	Installment      int             `json:"installment"`
	DueDate          time.Time       `json:"due_date"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	Principal        decimal.Decimal `json:"principal"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// BuildSchedule computes the scheduled installments for a loan. The
// monthly payment is derived with float64 only for the power term; all
// monetary arithmetic stays in decimals.
func BuildSchedule(principal decimal.Decimal, annualRate decimal.Decimal, termMonths int, startDate time.Time) []ScheduleEntry {
	if termMonths <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	monthlyRate := annualRate.Div(decimal.NewFromInt(12))
	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = domain.RoundMoney(principal.Div(decimal.NewFromInt(int64(termMonths))))
	} else {
		r, _ := monthlyRate.Float64()
		factor := math.Pow(1+r, float64(termMonths))
		p, _ := principal.Float64()
		payment = domain.RoundMoney(decimal.NewFromFloat(p * r * factor / (factor - 1)))
	}

	schedule := make([]ScheduleEntry, 0, termMonths)
	remaining := principal
	for k := 1; k <= termMonths; k++ {
		interest := domain.RoundMoney(remaining.Mul(monthlyRate))
		principalPart := payment.Sub(interest)
		if k == termMonths {
			// Final installment clears whatever is left exactly.
			principalPart = remaining
			payment = principalPart.Add(interest)
		}
		remaining = remaining.Sub(principalPart)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		schedule = append(schedule, ScheduleEntry{
			Installment:      k,
			DueDate:          startDate.AddDate(0, k, 0),
			Payment:          payment,
			Interest:         interest,
			Principal:        principalPart,
			RemainingBalance: remaining,
		})
	}
	return schedule
}

// PaymentSplit is the fees/interest/principal allocation of one payment.
type PaymentSplit struct {
	Fees      decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
}

// AllocatePayment splits a payment amount against the loan's current
// dues in fixed precedence: fees, then the period's unpaid interest,
// then principal. The remainder beyond the dues prepays principal. A
// payment whose principal portion would push cumulative principal past
// the original principal fails with ErrNegativePrincipal.
func AllocatePayment(amount decimal.Decimal, outstanding decimal.Decimal, interestDue decimal.Decimal, feesDue decimal.Decimal) (PaymentSplit, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return PaymentSplit{}, domain.ErrInvalidAmount
	}

	remaining := amount
	split := PaymentSplit{Fees: decimal.Zero, Interest: decimal.Zero, Principal: decimal.Zero}

	if feesDue.IsPositive() {
		split.Fees = decimal.Min(remaining, feesDue)
		remaining = remaining.Sub(split.Fees)
	}

	if remaining.IsPositive() && interestDue.IsPositive() {
		split.Interest = decimal.Min(remaining, interestDue)
		remaining = remaining.Sub(split.Interest)
	}

	if remaining.IsPositive() {
		if remaining.GreaterThan(outstanding) {
			return PaymentSplit{}, fmt.Errorf("payment of %s against outstanding %s: %w",
				amount.StringFixed(2), outstanding.StringFixed(2), domain.ErrNegativePrincipal)
		}
		split.Principal = remaining
	}

	return split, nil
}

// InterestDueIn computes the unpaid interest remainder for the given
// period: the outstanding balance at the period's start times the
// monthly rate, less interest already collected inside the period.
// Interest is owed once per period, never once per payment, so a
// second payment inside the same period only settles what the first
// one left uncovered.
func InterestDueIn(loan *domain.Loan, txs []domain.Transaction, p domain.Period) decimal.Decimal {
	label := p.Label()
	principalBefore := decimal.Zero
	interestPaid := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case domain.TxLoanPrincipal:
			// Canonical YYYY-MM labels order lexically.
			if tx.PeriodLabel < label {
				principalBefore = principalBefore.Add(tx.Amount)
			}
		case domain.TxLoanInterest:
			if tx.PeriodLabel == label {
				interestPaid = interestPaid.Add(tx.Amount)
			}
		}
	}
	openingBalance := loan.Principal.Sub(principalBefore)
	if openingBalance.IsNegative() {
		openingBalance = decimal.Zero
	}
	due := domain.MonthlyInterest(openingBalance, loan.AnnualRate).Sub(interestPaid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// AmortizationResult is the derived state of a loan after folding its
// transaction history.
type AmortizationResult struct {
	Outstanding   decimal.Decimal
	PrincipalPaid decimal.Decimal
	InterestPaid  decimal.Decimal
	FeesPaid      decimal.Decimal
	Payments      []domain.PaymentAllocation
	NextDueDate   *time.Time
	Completed     bool
}

// Amortize recomputes a loan's balances from its ordered transaction
// log. The fold is strictly chronological; records sharing a timestamp
// contribute commutatively, so their relative order does not change the
// outcome. The outstanding balance is principal minus the cumulative
// principal portion of payments, never a stored counter.
func Amortize(loan *domain.Loan, txs []domain.Transaction) (*AmortizationResult, error) {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	res := &AmortizationResult{
		Outstanding:   loan.Principal,
		PrincipalPaid: decimal.Zero,
		InterestPaid:  decimal.Zero,
		FeesPaid:      decimal.Zero,
	}

	// One PaymentAllocation per receipt number, in first-seen order.
	allocIndex := map[string]int{}

	for _, tx := range ordered {
		switch tx.Type {
		case domain.TxDisbursement:
			continue
		case domain.TxLoanPrincipal:
			res.PrincipalPaid = res.PrincipalPaid.Add(tx.Amount)
			res.Outstanding = res.Outstanding.Sub(tx.Amount)
			if res.Outstanding.IsNegative() {
				return nil, fmt.Errorf("loan %s: %w", loan.LoanNumber, domain.ErrNegativePrincipal)
			}
		case domain.TxLoanInterest:
			res.InterestPaid = res.InterestPaid.Add(tx.Amount)
		case domain.TxFee:
			res.FeesPaid = res.FeesPaid.Add(tx.Amount)
		default:
			continue
		}

		idx, seen := allocIndex[tx.ReceiptNumber]
		if !seen {
			res.Payments = append(res.Payments, domain.PaymentAllocation{
				TransactionID: tx.ID,
				Date:          tx.Date,
				ReceiptNumber: tx.ReceiptNumber,
				Amount:        decimal.Zero,
				Fees:          decimal.Zero,
				Interest:      decimal.Zero,
				Principal:     decimal.Zero,
			})
			idx = len(res.Payments) - 1
			allocIndex[tx.ReceiptNumber] = idx
		}
		alloc := &res.Payments[idx]
		alloc.Amount = alloc.Amount.Add(tx.Amount)
		switch tx.Type {
		case domain.TxLoanPrincipal:
			alloc.Principal = alloc.Principal.Add(tx.Amount)
		case domain.TxLoanInterest:
			alloc.Interest = alloc.Interest.Add(tx.Amount)
		case domain.TxFee:
			alloc.Fees = alloc.Fees.Add(tx.Amount)
		}
		alloc.BalanceAfter = res.Outstanding
	}

	res.Completed = res.Outstanding.IsZero()
	if !res.Completed {
		res.NextDueDate = nextDueDate(loan, res.PrincipalPaid)
	}
	return res, nil
}

// nextDueDate finds the due date of the first installment whose
// cumulative scheduled principal is not yet covered by payments.
func nextDueDate(loan *domain.Loan, principalPaid decimal.Decimal) *time.Time {
	schedule := BuildSchedule(loan.Principal, loan.AnnualRate, loan.TermMonths, loan.StartDate)
	covered := decimal.Zero
	for _, entry := range schedule {
		covered = covered.Add(entry.Principal)
		if principalPaid.LessThan(covered) {
			due := entry.DueDate
			return &due
		}
	}
	return nil
}

// DaysPastDue measures how far behind schedule the loan is as of the
// given date. Zero when nothing is due yet or the loan is current.
func (r *AmortizationResult) DaysPastDue(asOf time.Time) int {
	if r.Completed || r.NextDueDate == nil {
		return 0
	}
	due := truncateToDay(*r.NextDueDate)
	today := truncateToDay(asOf)
	if !due.Before(today) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
